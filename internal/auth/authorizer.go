package auth

import (
	"context"
	"fmt"

	"xplorer/internal/credentials"
	"xplorer/internal/oauth1"
	"xplorer/internal/tokenstore"
	"xplorer/pkg/logging"
)

// Context says whether a request acts as the user or as the app.
type Context int

const (
	// ContextUser requests act on behalf of the authenticated user.
	ContextUser Context = iota
	// ContextApp requests accept an app-only bearer token.
	ContextApp
)

// String returns "user" or "app".
func (c Context) String() string {
	if c == ContextApp {
		return "app"
	}
	return "user"
}

// Request describes the call an Authorization header is needed for.
type Request struct {
	Method string
	// URL is absolute and may carry query parameters; they are signed.
	URL string
	// Params are extra signed parameters, such as a form body.
	Params  []oauth1.Param
	Context Context
}

// TokenSource returns a current OAuth 2.0 token. *oauth.Refresher
// implements it.
type TokenSource interface {
	Token(ctx context.Context) (*tokenstore.Record, error)
}

// Authorizer produces Authorization headers for the method selected from a
// credential Set. It is safe for concurrent use.
type Authorizer struct {
	creds  *credentials.Set
	method Method
	signer oauth1.Signer
	tokens TokenSource
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithSigner overrides the OAuth 1.0a signer, mainly to fix nonce and
// clock in tests.
func WithSigner(s oauth1.Signer) Option {
	return func(a *Authorizer) { a.signer = s }
}

// WithTokenSource supplies OAuth 2.0 tokens for MethodOAuth2PKCE.
func WithTokenSource(ts TokenSource) Option {
	return func(a *Authorizer) { a.tokens = ts }
}

// NewAuthorizer selects the method for set once.
func NewAuthorizer(set *credentials.Set, opts ...Option) (*Authorizer, error) {
	method, err := SelectMethod(set)
	if err != nil {
		return nil, err
	}
	a := &Authorizer{creds: set, method: method}
	for _, opt := range opts {
		opt(a)
	}
	logging.Debug("Auth", "Selected authentication method %s", method)
	return a, nil
}

// Method returns the selected method.
func (a *Authorizer) Method() Method { return a.method }

// Credentials returns the credential set the Authorizer was built from.
func (a *Authorizer) Credentials() *credentials.Set { return a.creds }

// Bearer returns the app-only bearer token, preferring the one configured
// next to the OAuth 1.0a keys.
func (a *Authorizer) Bearer() (string, bool) {
	if a.creds.OAuth1 != nil && a.creds.OAuth1.BearerToken != "" {
		return a.creds.OAuth1.BearerToken, true
	}
	if a.creds.Bearer != nil && a.creds.Bearer.BearerToken != "" {
		return a.creds.Bearer.BearerToken, true
	}
	return "", false
}

// Header returns the Authorization header value for req.
//
// App-context requests use a bearer token when one is configured and
// otherwise fall back to the user-context rules.
func (a *Authorizer) Header(ctx context.Context, req Request) (string, error) {
	if req.Context == ContextApp {
		if token, ok := a.Bearer(); ok {
			return "Bearer " + token, nil
		}
	}

	switch a.method {
	case MethodOAuth1:
		header, err := a.signer.Sign(req.Method, req.URL, a.creds.OAuth1, req.Params)
		if err != nil {
			return "", fmt.Errorf("auth: failed to sign request: %w", err)
		}
		return header, nil
	case MethodOAuth2PKCE:
		if a.tokens == nil {
			return "", ErrNoTokenSource
		}
		rec, err := a.tokens.Token(ctx)
		if err != nil {
			return "", err
		}
		return "Bearer " + rec.AccessToken, nil
	case MethodBearerOnly:
		return "", ErrOAuth1Required
	default:
		return "", ErrNoAuthMethod
	}
}
