// Package cli wires the xplorer auth core together for the command line.
//
// NewSession loads config.yaml and the credential set, picks the token
// store, and builds the refresher, authorizer and API client a command
// needs. Missing credentials are tolerated so that status and logout keep
// working on a fresh machine.
//
// Explain converts errors from the core packages into AuthRequiredError,
// AuthExpiredError, AuthFailedError or ConnectionError. Those carry
// actionable messages and select the process exit code in cmd.
//
// Progress and NewKeyValueTable provide the spinner and status table used
// by the auth commands.
package cli
