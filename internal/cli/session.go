package cli

import (
	"errors"
	"fmt"
	"net/http"

	"xplorer/internal/api"
	"xplorer/internal/auth"
	"xplorer/internal/config"
	"xplorer/internal/credentials"
	"xplorer/internal/oauth"
	"xplorer/internal/tokenstore"
	"xplorer/pkg/logging"
)

// Session holds everything a command needs to talk to the X API. It is
// assembled once per invocation by NewSession.
type Session struct {
	Config      config.Config
	Credentials *credentials.Set

	// CredentialsErr is non-nil when credential loading failed. Commands
	// that do not need credentials (status, logout) still run.
	CredentialsErr error

	Store tokenstore.Store

	// OAuth2 and Refresher are nil unless the OAuth2 slot is populated.
	OAuth2    *OAuthSettings
	Refresher *oauth.Refresher

	// Authorizer and Client are nil when no auth method could be selected.
	Authorizer *auth.Authorizer
	Client     *api.Client
}

// OAuthSettings is the resolved configuration for the PKCE flow.
type OAuthSettings struct {
	Credentials  *credentials.OAuth2Credentials
	Endpoint     oauth.Endpoint
	Scopes       []string
	CallbackPort int
	CallbackPath string
}

// RedirectURL returns the loopback redirect for the configured port.
func (o *OAuthSettings) RedirectURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", o.CallbackPort, o.CallbackPath)
}

// SessionOptions override the sources NewSession reads from.
type SessionOptions struct {
	// ConfigPath overrides the config.yaml location.
	ConfigPath string

	// CredentialOptions are passed to credentials.Load.
	CredentialOptions []credentials.Option

	// Store overrides the token store chosen by config.
	Store tokenstore.Store

	HTTPClient *http.Client
}

// NewSession loads configuration and credentials and wires the token store,
// refresher, authorizer and API client. Missing credentials are not fatal;
// the error is kept in CredentialsErr and the dependent fields stay nil.
func NewSession(opts SessionOptions) (*Session, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadConfig(opts.ConfigPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	s := &Session{Config: cfg}

	s.Store = opts.Store
	if s.Store == nil {
		s.Store, err = newStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	s.Credentials, s.CredentialsErr = credentials.Load(opts.CredentialOptions...)
	if s.CredentialsErr != nil {
		if !errors.Is(s.CredentialsErr, credentials.ErrNoCredentials) {
			return nil, s.CredentialsErr
		}
		logging.Warn("Session", "No credentials loaded; only status and logout are available")
		return s, nil
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: api.DefaultHTTPTimeout}
	}

	var authOpts []auth.Option
	if s.Credentials.OAuth2 != nil {
		s.OAuth2 = &OAuthSettings{
			Credentials:  s.Credentials.OAuth2,
			Endpoint:     oauth.Endpoint{AuthorizeURL: cfg.AuthorizeURL, TokenURL: cfg.TokenURL},
			Scopes:       cfg.OAuthScopes,
			CallbackPort: cfg.OAuthCallbackPort,
			CallbackPath: cfg.OAuthCallbackPath,
		}
		conf := oauth.NewConfig(s.OAuth2.Credentials, s.OAuth2.Endpoint, s.OAuth2.RedirectURL(), s.OAuth2.Scopes)
		s.Refresher = oauth.NewRefresher(s.Store, conf)
		s.Refresher.HTTPClient = httpClient
		authOpts = append(authOpts, auth.WithTokenSource(s.Refresher))
	}

	s.Authorizer, err = auth.NewAuthorizer(s.Credentials, authOpts...)
	if err != nil {
		return nil, err
	}
	s.Client = api.NewClient(s.Authorizer,
		api.WithHTTPClient(httpClient),
		api.WithBaseURL(cfg.APIBaseURL),
	)

	return s, nil
}

// RequireClient returns the API client or an AuthRequiredError explaining
// why none is available.
func (s *Session) RequireClient() (*api.Client, error) {
	if s.Client == nil {
		reason := s.CredentialsErr
		if reason == nil {
			reason = auth.ErrNoAuthMethod
		}
		return nil, &AuthRequiredError{Reason: reason}
	}
	return s.Client, nil
}

// RequireOAuth2 returns the PKCE settings or an error when no client id is
// configured.
func (s *Session) RequireOAuth2() (*OAuthSettings, error) {
	if s.OAuth2 == nil {
		return nil, &AuthRequiredError{
			Reason: fmt.Errorf("OAuth 2.0 requires %s in the environment or a .env file", credentials.EnvClientID),
		}
	}
	return s.OAuth2, nil
}

func newStore(cfg config.Config) (tokenstore.Store, error) {
	switch cfg.TokenStorage {
	case config.TokenStorageKeyring:
		return tokenstore.NewKeyringStore(), nil
	case config.TokenStorageFile, "":
		path, err := cfg.ResolveTokenFile()
		if err != nil {
			return nil, err
		}
		return tokenstore.NewFileStore(path), nil
	default:
		return nil, fmt.Errorf("unknown token_storage %q", cfg.TokenStorage)
	}
}

// WatchTokens calls onChange whenever the token file is rewritten by
// another process, after dropping the cached identity. It is a no-op for
// keyring storage. The returned stop function is always non-nil.
func (s *Session) WatchTokens(onChange func()) (stop func(), err error) {
	fs, ok := s.Store.(*tokenstore.FileStore)
	if !ok {
		return func() {}, nil
	}
	w := tokenstore.NewWatcher(tokenstore.WatcherConfig{
		Path: fs.Path(),
		OnChange: func() {
			if s.Client != nil {
				s.Client.InvalidateIdentity()
			}
			if onChange != nil {
				onChange()
			}
		},
	})
	if err := w.Start(); err != nil {
		return func() {}, err
	}
	return w.Stop, nil
}
