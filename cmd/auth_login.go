package cmd

import (
	"fmt"

	"xplorer/internal/cli"
	"xplorer/internal/oauth"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Login-specific flags
var (
	loginNoBrowser bool
	loginPort      int
	loginYes       bool
)

// loginOpenBrowser opens the authorization URL. Tests replace it with a
// simulated user agent.
var loginOpenBrowser = oauth.OpenBrowser

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize xplorer with OAuth 2.0",
	Long: `Authorize xplorer with OAuth 2.0 (authorization code with PKCE).

A loopback listener is started on 127.0.0.1 and the authorization page is
opened in your browser. After you approve access the token is stored and
refreshed automatically on later runs.

Requires X_CLIENT_ID (and X_CLIENT_SECRET for confidential clients). The
redirect URI registered for the app must match
http://127.0.0.1:<oauth_callback_port><oauth_callback_path>.

Examples:
  xplorer auth login                    # Open the browser
  xplorer auth login --no-browser       # Print the URL to open elsewhere
  xplorer auth login --port 9000        # Listen on another port
  xplorer auth login --yes              # Replace an existing token without asking`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	authLoginCmd.Flags().IntVar(&loginPort, "port", -1, "Callback port (default from config; 0 picks a free port)")
	authLoginCmd.Flags().BoolVarP(&loginYes, "yes", "y", false, "Skip the re-authentication prompt")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	settings, err := s.RequireOAuth2()
	if err != nil {
		return err
	}

	existing, err := s.Store.Load(ctx)
	if err != nil {
		authPrint(out, "Ignoring unreadable stored token: %v\n", err)
	}
	if existing != nil && !loginYes {
		ok, err := confirmPrompt("A token is already stored. Re-authenticate?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	port := settings.CallbackPort
	if loginPort >= 0 {
		port = loginPort
	}

	flow, err := oauth.NewFlow(oauth.FlowConfig{
		Credentials:  settings.Credentials,
		Endpoint:     settings.Endpoint,
		Scopes:       settings.Scopes,
		CallbackPort: port,
		CallbackPath: settings.CallbackPath,
		Timeout:      s.Config.LoginTimeout,
		Store:        s.Store,
		HTTPClient:   s.Refresher.HTTPClient,
		NoBrowser:    loginNoBrowser,
		OpenBrowser:  loginOpenBrowser,
		Out:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	// The URL is printed on stderr in no-browser mode; keep the spinner off it.
	progress := cli.StartProgress(cmd.ErrOrStderr(), authQuiet || loginNoBrowser, "Waiting for authorization in the browser...")
	rec, err := flow.Run(ctx)
	if err != nil {
		progress.Fail("Authorization failed")
		return cli.Explain(err)
	}
	progress.Stop()

	if s.Client != nil {
		s.Client.InvalidateIdentity()
	}

	authPrint(out, "%s\n", text.FgGreen.Sprint("Logged in."))
	if rec.ExpiresAt != nil {
		authPrint(out, "  Expires:   %s\n", rec.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	authPrint(out, "  Refresh:   %s\n", cli.Yes(rec.HasRefreshToken()))
	return nil
}
