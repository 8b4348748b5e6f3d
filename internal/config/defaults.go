package config

import "time"

const (
	// DefaultOAuthCallbackPort matches the redirect URI registered for xplorer.
	DefaultOAuthCallbackPort = 8477

	// DefaultOAuthCallbackPath is the default path for OAuth callbacks
	DefaultOAuthCallbackPath = "/callback"

	DefaultAuthorizeURL = "https://twitter.com/i/oauth2/authorize"
	DefaultTokenURL     = "https://api.x.com/2/oauth2/token"
	DefaultAPIBaseURL   = "https://api.x.com/2"

	DefaultLoginTimeout = 5 * time.Minute

	// tokenFileName is the file created inside the config directory.
	tokenFileName = "tokens.json"
)

// DefaultOAuthScopes are the scopes needed to read and act as the user.
// offline.access is required to receive a refresh token.
var DefaultOAuthScopes = []string{"tweet.read", "users.read", "offline.access"}

// GetDefaultConfig returns the configuration used when no config.yaml exists.
func GetDefaultConfig() Config {
	return Config{
		OAuthCallbackPort: DefaultOAuthCallbackPort,
		OAuthCallbackPath: DefaultOAuthCallbackPath,
		OAuthScopes:       append([]string(nil), DefaultOAuthScopes...),
		AuthorizeURL:      DefaultAuthorizeURL,
		TokenURL:          DefaultTokenURL,
		APIBaseURL:        DefaultAPIBaseURL,
		TokenStorage:      TokenStorageFile,
		LoginTimeout:      DefaultLoginTimeout,
		LogLevel:          "warn",
	}
}
