package auth

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"

	"xplorer/internal/oauth1"
)

type contextKey struct{}

// WithRequestContext marks requests made with ctx as user or app context.
// Requests default to ContextUser.
func WithRequestContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// RequestContextFrom returns the Context stored by WithRequestContext.
func RequestContextFrom(ctx context.Context) Context {
	if c, ok := ctx.Value(contextKey{}).(Context); ok {
		return c
	}
	return ContextUser
}

// HeaderError reports that no Authorization header could be produced. The
// request was not sent.
type HeaderError struct {
	Err error
}

func (e *HeaderError) Error() string { return e.Err.Error() }

func (e *HeaderError) Unwrap() error { return e.Err }

// Transport is an http.RoundTripper that sets the Authorization header on
// every request.
type Transport struct {
	Authorizer *Authorizer

	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper. URL-encoded form bodies are
// included in the OAuth 1.0a signature.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	params, err := formParams(req)
	if err != nil {
		closeBody(req)
		return nil, err
	}

	header, err := t.Authorizer.Header(req.Context(), Request{
		Method:  req.Method,
		URL:     req.URL.String(),
		Params:  params,
		Context: RequestContextFrom(req.Context()),
	})
	if err != nil {
		closeBody(req)
		return nil, &HeaderError{Err: err}
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", header)
	return t.base().RoundTrip(clone)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func formParams(req *http.Request) ([]oauth1.Param, error) {
	if req.Body == nil || req.GetBody == nil {
		return nil, nil
	}
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return nil, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, err
	}

	var params []oauth1.Param
	for k, vs := range values {
		for _, v := range vs {
			params = append(params, oauth1.Param{Key: k, Value: v})
		}
	}
	return params, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
