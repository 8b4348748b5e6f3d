// Package tokenstore persists the OAuth 2.0 token record used for PKCE
// user context.
//
// FileStore is the default backend and writes tokens.json with owner-only
// permissions. KeyringStore keeps the same JSON in the OS keyring. Both
// implement Store; Store.Update is the only safe way to refresh a token
// because it re-reads the record under a writer lock.
//
// Watcher reports changes made by other processes so long-running callers
// can drop state derived from the old token.
package tokenstore
