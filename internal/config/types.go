package config

import "time"

// TokenStorage names the backend used to persist OAuth 2.0 tokens.
type TokenStorage string

const (
	// TokenStorageFile keeps tokens in a JSON file under the config directory.
	TokenStorageFile TokenStorage = "file"
	// TokenStorageKeyring keeps tokens in the operating system keyring.
	TokenStorageKeyring TokenStorage = "keyring"
)

// Config is the top-level xplorer configuration, read from config.yaml.
type Config struct {
	// OAuthCallbackPort is the loopback port for the PKCE redirect.
	// 0 lets the operating system choose a free port.
	OAuthCallbackPort int `yaml:"oauth_callback_port"`

	// OAuthCallbackPath must match the redirect registered with the provider.
	OAuthCallbackPath string `yaml:"oauth_callback_path"`

	// OAuthScopes are requested during interactive authorization.
	OAuthScopes []string `yaml:"oauth_scopes"`

	AuthorizeURL string `yaml:"authorize_url"`
	TokenURL     string `yaml:"token_url"`
	APIBaseURL   string `yaml:"api_base_url"`

	TokenStorage TokenStorage `yaml:"token_storage"`

	// TokenFile overrides the token file location. Only used with file storage.
	TokenFile string `yaml:"token_file,omitempty"`

	// LoginTimeout bounds the wait for the browser redirect.
	LoginTimeout time.Duration `yaml:"login_timeout"`

	LogLevel string `yaml:"log_level"`
}
