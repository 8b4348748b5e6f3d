package oauth

import (
	"context"
	"crypto/subtle"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/Masterminds/sprig/v3"

	"xplorer/pkg/logging"
)

const appName = "xplorer"

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	successTemplate = template.Must(template.New("success").Funcs(sprig.FuncMap()).Parse(callbackSuccessHTML))
	errorTemplate   = template.Must(template.New("error").Funcs(sprig.FuncMap()).Parse(callbackErrorHTML))
)

// CallbackResult holds the query parameters of the authorization redirect.
type CallbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// IsError returns true if the provider reported an error.
func (r *CallbackResult) IsError() bool {
	return r.Error != ""
}

// Validate checks the redirect against the expected state and returns the
// authorization code. Provider errors are reported first, then state, then
// a missing code.
func (r *CallbackResult) Validate(expectedState string) (string, error) {
	if r.IsError() {
		return "", &AuthorizationError{Code: r.Error, Description: r.ErrorDescription}
	}
	if r.State == "" || subtle.ConstantTimeCompare([]byte(r.State), []byte(expectedState)) != 1 {
		return "", ErrCSRFMismatch
	}
	if r.Code == "" {
		return "", ErrMissingCode
	}
	return r.Code, nil
}

// CallbackServer is a temporary loopback HTTP server that receives a single
// authorization redirect.
type CallbackServer struct {
	port          int
	path          string
	expectedState string

	server   *http.Server
	listener net.Listener
	resultCh chan *CallbackResult
	errorCh  chan error
	once     sync.Once
	stopOnce sync.Once
	stopped  chan struct{}

	redirectURI string
}

// NewCallbackServer creates a server for 127.0.0.1:port. Port 0 picks an
// ephemeral port. expectedState only decides which page the browser sees;
// callers must still validate the result.
func NewCallbackServer(port int, path, expectedState string) *CallbackServer {
	if path == "" {
		path = "/callback"
	}
	return &CallbackServer{
		port:          port,
		path:          path,
		expectedState: expectedState,
		resultCh:      make(chan *CallbackResult, 1),
		errorCh:       make(chan error, 1),
		stopped:       make(chan struct{}),
	}
}

// Start binds the listener and serves in the background until Stop or ctx
// cancellation. It returns the redirect URI to register in the
// authorization request.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return "", &PortInUseError{Port: s.port, Err: err}
		}
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.redirectURI = fmt.Sprintf("http://127.0.0.1:%d%s", s.port, s.path)

	s.server = &http.Server{
		Handler:           http.HandlerFunc(s.route),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stopped:
		}
	}()

	logging.Debug("OAuth", "Callback server listening on %s", listener.Addr())
	return s.redirectURI, nil
}

// WaitForCallback blocks until the first redirect arrives, the server fails
// or ctx is done.
func (s *CallbackServer) WaitForCallback(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-s.errorCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// route answers 404 outside the callback path so favicon requests and
// other noise do not end the wait.
func (s *CallbackServer) route(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != s.path {
		http.NotFound(w, r)
		return
	}

	handled := false
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})
	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	tmpl := successTemplate
	data := map[string]string{"AppName": appName}
	status := http.StatusOK
	if _, err := result.Validate(s.expectedState); err != nil {
		tmpl = errorTemplate
		status = http.StatusBadRequest
		var authErr *AuthorizationError
		if errors.As(err, &authErr) {
			data["Error"] = authErr.Code
			data["Description"] = authErr.Description
		} else if errors.Is(err, ErrCSRFMismatch) {
			data["Error"] = "state_mismatch"
			data["Description"] = "The authorization response did not match this login attempt."
		} else {
			data["Error"] = "missing_code"
			data["Description"] = "The authorization response did not include a code."
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		logging.Error("OAuth", err, "Failed to render callback page")
	}

	select {
	case s.resultCh <- result:
	default:
	}
}

// Stop shuts the server down, letting an in-flight callback response
// finish. It is safe to call more than once.
func (s *CallbackServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

// RedirectURI returns the redirect URI, valid after Start.
func (s *CallbackServer) RedirectURI() string {
	return s.redirectURI
}

// Port returns the bound port, valid after Start.
func (s *CallbackServer) Port() int {
	return s.port
}
