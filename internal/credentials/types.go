package credentials

// Environment keys read by Load.
const (
	EnvAPIKey            = "X_API_KEY"
	EnvAPISecret         = "X_API_SECRET"
	EnvAccessToken       = "X_ACCESS_TOKEN"
	EnvAccessTokenSecret = "X_ACCESS_TOKEN_SECRET"
	EnvBearerToken       = "X_BEARER_TOKEN"
	EnvClientID          = "X_CLIENT_ID"
	EnvClientSecret      = "X_CLIENT_SECRET"
)

// Keys lists every environment key Load consults, in display order.
var Keys = []string{
	EnvAPIKey,
	EnvAPISecret,
	EnvAccessToken,
	EnvAccessTokenSecret,
	EnvBearerToken,
	EnvClientID,
	EnvClientSecret,
}

const redacted = "<redacted>"

// OAuth1Credentials are the four OAuth 1.0a user-context secrets plus an
// optional app bearer token for endpoints that accept either.
type OAuth1Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string

	// BearerToken is empty when X_BEARER_TOKEN is not configured.
	BearerToken string
}

// String never prints any field; every value is a secret.
func (OAuth1Credentials) String() string { return "OAuth1Credentials{" + redacted + "}" }

// GoString keeps %#v from leaking secrets.
func (c OAuth1Credentials) GoString() string { return c.String() }

// OAuth2Credentials identify a PKCE client. ClientSecret is empty for
// public clients.
type OAuth2Credentials struct {
	ClientID     string
	ClientSecret string
}

// IsConfidential reports whether a client secret is configured.
func (c OAuth2Credentials) IsConfidential() bool { return c.ClientSecret != "" }

// String prints the client id and hides the secret.
func (c OAuth2Credentials) String() string {
	secret := "none"
	if c.IsConfidential() {
		secret = redacted
	}
	return "OAuth2Credentials{ClientID: " + c.ClientID + ", ClientSecret: " + secret + "}"
}

// GoString keeps %#v from leaking secrets.
func (c OAuth2Credentials) GoString() string { return c.String() }

// BearerCredentials hold a static app-only token.
type BearerCredentials struct {
	BearerToken string
}

// String never prints the token.
func (BearerCredentials) String() string { return "BearerCredentials{" + redacted + "}" }

// GoString keeps %#v from leaking secrets.
func (c BearerCredentials) GoString() string { return c.String() }

// Set bundles every credential kind that could be populated at startup.
// A nil slot means at least one required field was missing. A Set is not
// modified after Load returns and may be shared between goroutines.
type Set struct {
	OAuth1 *OAuth1Credentials
	OAuth2 *OAuth2Credentials
	Bearer *BearerCredentials

	origins map[string]string
}

// Empty reports whether no slot is populated.
func (s *Set) Empty() bool {
	return s == nil || (s.OAuth1 == nil && s.OAuth2 == nil && s.Bearer == nil)
}

// Origin returns where a key's value came from: "env", a dotenv file path,
// or "" when the key was not set.
func (s *Set) Origin(key string) string {
	if s == nil {
		return ""
	}
	return s.origins[key]
}
