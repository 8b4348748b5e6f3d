package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"xplorer/internal/auth"
	"xplorer/internal/cli"
	"xplorer/internal/oauth1"

	"github.com/spf13/cobra"
)

var authQuiet bool

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication for the X API",
	Long: `Manage authentication for xplorer.

The auth command group provides subcommands to log in with OAuth 2.0,
inspect the selected authentication method, refresh or remove stored
tokens, and produce Authorization headers for other tools.

Examples:
  xplorer auth login                    # Authorize in the browser (PKCE)
  xplorer auth login --no-browser       # Print the authorization URL instead
  xplorer auth status                   # Show method, credentials and token state
  xplorer auth whoami                   # Show the authenticated user
  xplorer auth refresh                  # Force a token refresh
  xplorer auth logout                   # Remove the stored token
  xplorer auth header GET https://api.x.com/2/users/me`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored OAuth 2.0 token",
	Long: `Remove the stored OAuth 2.0 token.

Credentials in the environment or .env files are not touched. Run
'xplorer auth login' to authorize again.

Examples:
  xplorer auth logout                   # Asks for confirmation
  xplorer auth logout --yes             # No confirmation`,
	Args: cobra.NoArgs,
	RunE: runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force token refresh",
	Long: `Force a refresh of the stored OAuth 2.0 token.

The refresh token grant is used even if the access token has not expired
yet. This fails when the stored token has no refresh token; log in again
with the offline.access scope in that case.`,
	Args: cobra.NoArgs,
	RunE: runAuthRefresh,
}

// authWhoamiCmd represents the auth whoami command
var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated identity",
	Long: `Show the user the selected credentials act as.

This calls GET /2/users/me in user context. Bearer-only credentials cannot
identify a user and report an error instead.`,
	Args: cobra.NoArgs,
	RunE: runAuthWhoami,
}

// authHeaderCmd represents the auth header command
var authHeaderCmd = &cobra.Command{
	Use:   "header METHOD URL",
	Short: "Print an Authorization header for a request",
	Long: `Print the Authorization header xplorer would send for a request.

The URL must be absolute. Query parameters in the URL and --param values
are included in the OAuth 1.0a signature; pass form body fields as --param.
With --app the request is authorized in application context, which uses
the bearer token when one is configured.

Examples:
  xplorer auth header GET https://api.x.com/2/users/me
  xplorer auth header --app GET "https://api.x.com/2/tweets/search/recent?query=golang"
  curl -H "Authorization: $(xplorer auth header -q GET https://api.x.com/2/users/me)" https://api.x.com/2/users/me`,
	Args: cobra.ExactArgs(2),
	RunE: runAuthHeader,
}

// Subcommand flags
var (
	logoutYes    bool
	headerApp    bool
	headerParams []string
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authWhoamiCmd)
	authCmd.AddCommand(authHeaderCmd)

	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress non-essential output")

	authLogoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Skip confirmation prompt")

	authHeaderCmd.Flags().BoolVar(&headerApp, "app", false, "Authorize in application context")
	authHeaderCmd.Flags().StringArrayVar(&headerParams, "param", nil, "Extra signed parameter as key=value (repeatable)")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	rec, err := s.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}
	if rec == nil {
		authPrintln(out, "No stored token to remove.")
		return nil
	}

	if !logoutYes {
		ok, err := confirmPrompt("Remove the stored OAuth 2.0 token?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := s.Store.Delete(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	authPrintln(out, "Logged out.")
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	if _, err := s.RequireOAuth2(); err != nil {
		return err
	}

	progress := cli.StartProgress(cmd.ErrOrStderr(), authQuiet, "Refreshing token...")
	rec, err := s.Refresher.ForceRefresh(ctx)
	if err != nil {
		progress.Fail("Token refresh failed")
		return cli.Explain(err)
	}
	progress.Stop()

	authPrintln(out, "Token refreshed successfully.")
	if rec.ExpiresAt != nil {
		authPrint(out, "  Expires:   %s\n", rec.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	client, err := s.RequireClient()
	if err != nil {
		return err
	}

	me, err := client.Me(ctx)
	if err != nil {
		return cli.Explain(err)
	}

	fmt.Fprintf(out, "@%s\n", me.Username)
	authPrint(out, "  Name:      %s\n", orDash(me.Name))
	authPrint(out, "  ID:        %s\n", me.ID)
	authPrint(out, "  Method:    %s\n", s.Authorizer.Method())
	return nil
}

func runAuthHeader(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	rawURL := args[1]

	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("URL must be absolute: %q", rawURL)
	}

	params, err := parseParams(headerParams)
	if err != nil {
		return err
	}

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	if _, err := s.RequireClient(); err != nil {
		return err
	}

	authCtx := auth.ContextUser
	if headerApp {
		authCtx = auth.ContextApp
	}

	header, err := s.Authorizer.Header(cmd.Context(), auth.Request{
		Method:  method,
		URL:     rawURL,
		Params:  params,
		Context: authCtx,
	})
	if err != nil {
		return cli.Explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), header)
	return nil
}

// parseParams turns key=value flags into signing parameters. The value may
// be empty; the key may not.
func parseParams(raw []string) ([]oauth1.Param, error) {
	params := make([]oauth1.Param, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", kv)
		}
		params = append(params, oauth1.Param{Key: key, Value: value})
	}
	return params, nil
}
