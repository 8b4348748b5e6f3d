package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"xplorer/internal/credentials"
	"xplorer/internal/tokenstore"
	"xplorer/pkg/logging"
)

// FlowState is the progress of an interactive authorization.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowListenerBound
	FlowAwaitingRedirect
	FlowCodeReceived
	FlowExchanging
	FlowComplete
	FlowFailed
)

// String returns a human-readable representation of the flow state.
func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowListenerBound:
		return "listener_bound"
	case FlowAwaitingRedirect:
		return "awaiting_redirect"
	case FlowCodeReceived:
		return "code_received"
	case FlowExchanging:
		return "exchanging"
	case FlowComplete:
		return "complete"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FlowConfig configures an authorization code flow with PKCE.
type FlowConfig struct {
	Credentials *credentials.OAuth2Credentials
	Endpoint    Endpoint
	Scopes      []string

	// CallbackPort is the loopback port; 0 picks an ephemeral port.
	CallbackPort int
	CallbackPath string

	// Timeout bounds the whole flow. Zero means ctx alone decides.
	Timeout time.Duration

	// Store receives the token once the exchange succeeds.
	Store tokenstore.Store

	// HTTPClient is used for the token request. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// NoBrowser prints the authorization URL instead of opening it.
	NoBrowser bool

	// OpenBrowser defaults to OpenBrowser.
	OpenBrowser func(url string) error

	// Out receives the authorization URL when the browser is not used.
	// Defaults to os.Stderr.
	Out io.Writer
}

// Flow runs one interactive authorization. A Flow is single-use.
type Flow struct {
	cfg FlowConfig
	id  string

	mu      sync.Mutex
	state   FlowState
	started bool
}

// NewFlow validates cfg and returns an idle flow.
func NewFlow(cfg FlowConfig) (*Flow, error) {
	if cfg.Credentials == nil || cfg.Credentials.ClientID == "" {
		return nil, errors.New("oauth: client id is required")
	}
	if cfg.Endpoint.AuthorizeURL == "" || cfg.Endpoint.TokenURL == "" {
		return nil, errors.New("oauth: authorize and token URLs are required")
	}
	if cfg.Store == nil {
		return nil, errors.New("oauth: token store is required")
	}
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = OpenBrowser
	}
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	return &Flow{cfg: cfg, id: uuid.NewString(), state: FlowIdle}, nil
}

// ID identifies the flow in log output.
func (f *Flow) ID() string { return f.id }

// State returns the current state. Safe for concurrent use.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s FlowState) {
	f.mu.Lock()
	prev := f.state
	f.state = s
	f.mu.Unlock()
	logging.Debug("OAuth", "flow %s: %s -> %s", f.id, prev, s)
}

// Run performs the authorization and stores the resulting token. On any
// failure nothing is persisted and the flow ends in FlowFailed.
func (f *Flow) Run(ctx context.Context) (*tokenstore.Record, error) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil, fmt.Errorf("oauth: flow %s already started", f.id)
	}
	f.started = true
	f.mu.Unlock()

	rec, err := f.run(ctx)
	if err != nil {
		f.setState(FlowFailed)
		logging.Audit("OAuth", "authorization_failed",
			slog.String("flow_id", f.id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	f.setState(FlowComplete)
	logging.Audit("OAuth", "authorization_complete",
		slog.String("flow_id", f.id),
		slog.Bool("has_refresh_token", rec.HasRefreshToken()),
	)
	return rec, nil
}

func (f *Flow) run(ctx context.Context) (*tokenstore.Record, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pkce := GeneratePKCE()
	state, err := GenerateState()
	if err != nil {
		return nil, err
	}

	server := NewCallbackServer(f.cfg.CallbackPort, f.cfg.CallbackPath, state)
	redirectURI, err := server.Start(ctx)
	if err != nil {
		return nil, err
	}
	defer server.Stop()
	f.setState(FlowListenerBound)

	conf := NewConfig(f.cfg.Credentials, f.cfg.Endpoint, redirectURI, f.cfg.Scopes)
	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce.CodeVerifier))

	f.setState(FlowAwaitingRedirect)
	f.presentURL(authURL)

	result, err := server.WaitForCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("oauth: waiting for authorization redirect: %w", err)
	}
	server.Stop()

	code, err := result.Validate(state)
	if err != nil {
		if errors.Is(err, ErrCSRFMismatch) {
			logging.Audit("OAuth", "state_mismatch",
				slog.String("flow_id", f.id),
				slog.Bool("state_present", result.State != ""),
			)
		}
		return nil, err
	}
	f.setState(FlowCodeReceived)

	f.setState(FlowExchanging)
	tok, err := conf.Exchange(withHTTPClient(ctx, f.cfg.HTTPClient), code, oauth2.VerifierOption(pkce.CodeVerifier))
	if err != nil {
		return nil, &ExchangeError{Op: "exchange", Err: err}
	}

	rec := tokenstore.FromOAuth2Token(tok)
	if err := f.cfg.Store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("oauth: failed to store token: %w", err)
	}
	return rec, nil
}

func (f *Flow) presentURL(authURL string) {
	if !f.cfg.NoBrowser {
		err := f.cfg.OpenBrowser(authURL)
		if err == nil {
			fmt.Fprintf(f.cfg.Out, "Opened your browser to authorize xplorer.\nIf nothing happened, open this URL:\n\n  %s\n\n", authURL)
			return
		}
		logging.Warn("OAuth", "Could not open browser: %v", err)
	}
	fmt.Fprintf(f.cfg.Out, "Open this URL in your browser to authorize xplorer:\n\n  %s\n\n", authURL)
}
