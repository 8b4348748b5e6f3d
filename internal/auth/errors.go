package auth

import "errors"

var (
	// ErrNoAuthMethod is returned when no credential slot is populated.
	ErrNoAuthMethod = errors.New("auth: no authentication method available; set X_API_KEY/X_API_SECRET/X_ACCESS_TOKEN/X_ACCESS_TOKEN_SECRET, X_CLIENT_ID or X_BEARER_TOKEN")

	// ErrOAuth1Required is returned for user-context requests when only a
	// static app-only bearer token is configured.
	ErrOAuth1Required = errors.New("auth: this request needs user context; configure OAuth 1.0a keys or X_CLIENT_ID (a bearer token is app-only)")

	// ErrUserIdentityParse is returned when the identity response lacks
	// data.id.
	ErrUserIdentityParse = errors.New("auth: could not parse user identity from /users/me response")

	// ErrNoTokenSource is returned when PKCE is selected but the Authorizer
	// was built without a token source.
	ErrNoTokenSource = errors.New("auth: OAuth 2.0 selected but no token source configured")
)
