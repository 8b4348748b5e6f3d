package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"xplorer/internal/api"
	"xplorer/internal/cli"
	"xplorer/internal/credentials"
	"xplorer/internal/tokenstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// DefaultStatusCheckTimeout bounds the identity lookup done by --verify.
const DefaultStatusCheckTimeout = 10 * time.Second

// Status-specific flags
var (
	statusVerify bool
	statusWatch  bool
)

// statusNow is the clock used for expiry output.
var statusNow = time.Now

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the selected authentication method, where each credential was
found, and the state of the stored OAuth 2.0 token.

Credential values are never printed, only their origin (env or the .env
file that defined them).

Examples:
  xplorer auth status                   # Local state only
  xplorer auth status --verify          # Also call /2/users/me and show rate limits
  xplorer auth status --watch           # Re-render when another process updates the token`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

func init() {
	authStatusCmd.Flags().BoolVar(&statusVerify, "verify", false, "Verify the credentials with the API")
	authStatusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Re-render when the token file changes (file storage only)")
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	if err := renderStatus(ctx, out, s); err != nil {
		return err
	}
	if !statusWatch {
		return nil
	}

	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt)
	defer stopSignals()

	changed := make(chan struct{}, 1)
	stop, err := s.WatchTokens(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch token file: %w", err)
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			fmt.Fprintln(out)
			if err := renderStatus(ctx, out, s); err != nil {
				return err
			}
		}
	}
}

// renderStatus prints the status table for s. Verification failures are
// shown in the table rather than returned.
func renderStatus(ctx context.Context, out io.Writer, s *cli.Session) error {
	tw := cli.NewKeyValueTable(out)

	if s.Authorizer != nil {
		tw.AppendRow(table.Row{"Method", text.FgGreen.Sprint(s.Authorizer.Method().String())})
	} else {
		tw.AppendRow(table.Row{"Method", text.FgYellow.Sprint("none")})
	}

	tw.AppendSeparator()
	for _, key := range credentials.Keys {
		tw.AppendRow(table.Row{key, orDash(s.Credentials.Origin(key))})
	}

	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Token storage", storeLocation(s.Store)})
	rec, err := s.Store.Load(ctx)
	switch {
	case err != nil:
		tw.AppendRow(table.Row{"Token", text.FgRed.Sprintf("unreadable: %v", err)})
	case rec == nil:
		tw.AppendRow(table.Row{"Token", "not logged in"})
	default:
		tw.AppendRow(table.Row{"Token", text.FgGreen.Sprint("stored")})
		if rec.ExpiresAt != nil {
			tw.AppendRow(table.Row{"Expires", formatExpiryWithDirection(*rec.ExpiresAt, statusNow())})
		} else {
			tw.AppendRow(table.Row{"Expires", "never"})
		}
		tw.AppendRow(table.Row{"Refreshable", cli.Yes(rec.HasRefreshToken())})
	}

	if statusVerify {
		tw.AppendSeparator()
		verifyStatus(ctx, tw, s)
	}

	tw.Render()
	return nil
}

func verifyStatus(ctx context.Context, tw table.Writer, s *cli.Session) {
	client, err := s.RequireClient()
	if err != nil {
		tw.AppendRow(table.Row{"User", text.FgYellow.Sprint("no credentials")})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultStatusCheckTimeout)
	defer cancel()

	me, err := client.Me(ctx)
	if err != nil {
		tw.AppendRow(table.Row{"User", text.FgRed.Sprint(statusErrorSummary(err))})
	} else {
		tw.AppendRow(table.Row{"User", "@" + me.Username})
	}

	snap := client.RateLimit()
	if snap.IsZero() {
		return
	}
	if snap.Remaining != nil && snap.Limit != nil {
		tw.AppendRow(table.Row{"Rate limit", fmt.Sprintf("%d/%d remaining", *snap.Remaining, *snap.Limit)})
	}
	if snap.ResetAt != nil {
		tw.AppendRow(table.Row{"Resets", "in " + formatDuration(snap.ResetAt.Sub(statusNow()))})
	}
}

// statusErrorSummary shortens an error to one line for the status table.
func statusErrorSummary(err error) string {
	if rl, ok := api.IsRateLimited(err); ok {
		return "rate limited until " + rl.ResetAt.Local().Format(time.Kitchen)
	}
	if connErr, ok := cli.Explain(err).(*cli.ConnectionError); ok {
		return connErr.Type.String()
	}
	return err.Error()
}

func storeLocation(store tokenstore.Store) string {
	switch st := store.(type) {
	case *tokenstore.FileStore:
		return "file " + st.Path()
	case *tokenstore.KeyringStore:
		return "keyring"
	default:
		return fmt.Sprintf("%T", store)
	}
}
