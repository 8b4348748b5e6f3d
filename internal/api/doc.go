// Package api is the thin authenticated client for the X API v2.
//
// Every response goes through Classify, which records the rate limit
// headers and maps the status to a typed error:
//
//   - 429 becomes *RateLimitedError with the reset time
//   - other non-2xx statuses become *StatusError with the body
//   - 2xx bodies that do not decode become *DeserializeError
//
// Network failures become *TransportError. All four match ErrAPIClient.
// Authorization failures (no token, bearer-only in user context) come from
// the auth and oauth packages unchanged.
//
// Client.Me resolves the authenticated user once and caches it until
// InvalidateIdentity is called.
package api
