// Package oauth implements the OAuth 2.0 authorization code flow with PKCE
// for a public or confidential client and keeps the resulting token fresh.
//
// A Flow binds a loopback CallbackServer, sends the user to the provider's
// authorization page, validates the redirect (provider error, then CSRF
// state, then code), exchanges the code and saves the token to a
// tokenstore.Store. Nothing is saved unless every step succeeds.
//
// A Refresher returns the stored token and renews it shortly before expiry.
// Concurrent callers share one token request.
//
// SECURITY: verifiers, states, codes and tokens are never logged. Audit
// events carry only the flow ID and booleans.
package oauth
