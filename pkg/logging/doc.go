// Package logging provides the structured logger shared by every xplorer
// package.
//
// It is a thin layer over Go's slog package that tags each entry with a
// subsystem name, so output from the credential loader, the OAuth flow and
// the API client can be filtered independently.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Credentials", "Loaded %d dotenv file(s)", n)
//	logging.Warn("OAuth", "Failed to open browser: %v", err)
//	logging.Error("TokenStore", err, "Failed to persist token")
//
// # Audit Logging
//
// Security-sensitive operations (token stored, refreshed or deleted, CSRF
// state mismatch) are logged through Audit:
//
//	logging.Audit("TokenStore", "token_stored",
//	    slog.Bool("has_refresh_token", rec.RefreshToken != nil),
//	)
//
// Audit events are logged at INFO level with an [AUDIT] prefix. Token and
// secret values are never passed to the logger.
//
// # Thread Safety
//
// The active logger is swapped atomically; logging from concurrent request
// goroutines is safe at any time, including during InitForCLI.
package logging
