package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"xplorer/internal/api"
	"xplorer/internal/cli"
	"xplorer/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates credentials or a token are missing or expired.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow failed.
	ExitCodeAuthFailed = 3
	// ExitCodeRateLimited indicates the API answered with HTTP 429.
	ExitCodeRateLimited = 4
)

var (
	rootConfigPath string
	rootLogLevel   string
)

// rootCmd represents the base command for the xplorer application.
var rootCmd = &cobra.Command{
	Use:   "xplorer",
	Short: "Authenticate to and explore the X API",
	Long: `xplorer signs requests to the X API v2 with OAuth 1.0a, OAuth 2.0
(authorization code with PKCE) or an app-only bearer token.

Credentials are read from the environment or a .env file. OAuth 2.0
tokens obtained with 'xplorer auth login' are stored locally and
refreshed automatically.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootLogLevel == "" {
			return nil
		}
		level, err := logging.ParseLevel(rootLogLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "xplorer version %s\n" .Version}}`)

	ctx, stop := newSignalContext()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// newSignalContext is cancelled on SIGINT or SIGTERM, so a pending login
// or refresh unwinds and releases its listener instead of being killed.
func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	if _, ok := api.IsRateLimited(err); ok {
		return ExitCodeRateLimited
	}

	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to config.yaml (default $HOME/.config/xplorer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")
}
