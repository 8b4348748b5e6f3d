package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"xplorer/internal/auth"
	"xplorer/pkg/logging"
)

const (
	// DefaultBaseURL is the X API v2 root.
	DefaultBaseURL = "https://api.x.com/2"

	// DefaultHTTPTimeout is the default timeout for API requests.
	DefaultHTTPTimeout = 30 * time.Second

	identityPath = "/users/me"
)

// Identity is the authenticated principal returned by GET /users/me.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Client performs authenticated calls against the X API. Requests go
// through an auth.Transport, so redirects and form bodies are authorized
// like the original request.
//
// The last rate limit snapshot and the identity are cached, each under its
// own mutex. A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string

	rateLimitMu sync.Mutex
	rateLimit   RateLimitSnapshot

	identityMu sync.Mutex
	identity   *Identity
}

// ClientOption configures the API client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewClient creates a client that authorizes every request with a.
func NewClient(a *auth.Authorizer, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient
	if base == nil {
		base = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	c.httpClient = &http.Client{
		Transport:     &auth.Transport{Authorizer: a, Base: base.Transport},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}
	return c
}

// Get performs a GET request against path and decodes the JSON response
// into out.
func (c *Client) Get(ctx context.Context, path string, authCtx auth.Context, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, authCtx, nil, out)
}

// Do performs a request against path, relative to the base URL.
//
// Args:
//   - query: Query parameters; they are part of the OAuth 1.0a signature
//   - authCtx: Whether the request acts as the user or the app
//   - body: url.Values are sent form-encoded and included in the OAuth 1.0a
//     signature; anything else non-nil is marshalled as JSON and not signed
//   - out: Destination for the decoded response, or nil
//
// Returns:
//   - error: An authorization error from the auth package, or an error
//     matching ErrAPIClient
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, authCtx auth.Context, body, out any) error {
	rawURL := c.baseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("api: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(auth.WithRequestContext(ctx, authCtx), method, rawURL, reader)
	if err != nil {
		return &TransportError{Method: method, URL: rawURL, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	logging.Debug("API", "%s %s (%s context)", method, path, authCtx)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var headerErr *auth.HeaderError
		if errors.As(err, &headerErr) {
			return headerErr.Err
		}
		return &TransportError{Method: method, URL: rawURL, Err: err}
	}

	snap, err := Classify(resp, out)
	if !snap.IsZero() {
		c.rateLimitMu.Lock()
		c.rateLimit = snap
		c.rateLimitMu.Unlock()
	}
	if err != nil {
		logging.Debug("API", "%s %s failed: %v", method, path, err)
	}
	return err
}

// RateLimit returns the snapshot from the most recent response that carried
// rate limit headers.
func (c *Client) RateLimit() RateLimitSnapshot {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	return c.rateLimit
}

// Me returns the authenticated user, calling GET /users/me in user context
// on first use and caching the result.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	c.identityMu.Lock()
	cached := c.identity
	c.identityMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var resp struct {
		Data *Identity `json:"data"`
	}
	if err := c.Get(ctx, identityPath, auth.ContextUser, &resp); err != nil {
		var decodeErr *DeserializeError
		if errors.As(err, &decodeErr) {
			return nil, fmt.Errorf("%w: %w", auth.ErrUserIdentityParse, err)
		}
		return nil, err
	}
	if resp.Data == nil || resp.Data.ID == "" {
		return nil, auth.ErrUserIdentityParse
	}

	c.identityMu.Lock()
	c.identity = resp.Data
	c.identityMu.Unlock()
	return resp.Data, nil
}

// InvalidateIdentity drops the cached identity, for example after the token
// file changed.
func (c *Client) InvalidateIdentity() {
	c.identityMu.Lock()
	c.identity = nil
	c.identityMu.Unlock()
}
