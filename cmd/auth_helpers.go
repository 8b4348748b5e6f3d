package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"xplorer/internal/cli"
	"xplorer/pkg/logging"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// sessionOptions builds the options passed to cli.NewSession. Tests replace
// it to point at temporary files and a fake environment.
var sessionOptions = func() cli.SessionOptions {
	return cli.SessionOptions{ConfigPath: rootConfigPath}
}

// confirmPrompt asks a yes/no question. Tests replace it.
var confirmPrompt = readlineConfirm

// loadSession builds the session for a command and applies the configured
// log level unless --log-level was given.
func loadSession(cmd *cobra.Command) (*cli.Session, error) {
	s, err := cli.NewSession(sessionOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	if rootLogLevel == "" {
		level, err := logging.ParseLevel(s.Config.LogLevel)
		if err != nil {
			logging.Warn("CLI", "Ignoring log_level from config: %v", err)
		} else {
			logging.InitForCLI(level, cmd.ErrOrStderr())
		}
	}
	return s, nil
}

// authPrint prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrint(w io.Writer, format string, args ...interface{}) {
	if !authQuiet {
		fmt.Fprintf(w, format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
func authPrintln(w io.Writer, a ...interface{}) {
	if !authQuiet {
		fmt.Fprintln(w, a...)
	}
}

// readlineConfirm prompts on the terminal and returns true for y or yes.
// Ctrl+C and Ctrl+D count as no.
func readlineConfirm(prompt string) (bool, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt + " [y/N]: ",
		InterruptPrompt: "^C",
		EOFPrompt:       "no",
	})
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration renders d coarsely, e.g. "5 minutes" or "2 days".
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiryWithDirection renders an expiry relative to now, e.g.
// "in 5 minutes" or "expired 2 hours ago".
func formatExpiryWithDirection(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(-remaining))
}
