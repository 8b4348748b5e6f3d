package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xplorer/internal/auth"
	"xplorer/internal/credentials"
	"xplorer/internal/oauth1"
	"xplorer/internal/tokenstore"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(context.Context) (*tokenstore.Record, error) {
	return &tokenstore.Record{AccessToken: s.token}, nil
}

func newPKCEClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	a, err := auth.NewAuthorizer(&credentials.Set{
		OAuth2: &credentials.OAuth2Credentials{ClientID: "client"},
		Bearer: &credentials.BearerCredentials{BearerToken: "app-token"},
	}, auth.WithTokenSource(staticTokens{token: "user-token"}))
	require.NoError(t, err)

	return NewClient(a, WithHTTPClient(server.Client()), WithBaseURL(server.URL+"/2/")), server
}

func TestClient_GetSetsAuthorizationPerContext(t *testing.T) {
	var headers []string
	client, _ := newPKCEClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = append(headers, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	require.NoError(t, client.Get(context.Background(), "/tweets/search/recent", auth.ContextUser, nil))
	require.NoError(t, client.Get(context.Background(), "/tweets/search/recent", auth.ContextApp, nil))

	assert.Equal(t, []string{"Bearer user-token", "Bearer app-token"}, headers)
}

func TestClient_DoSignsQueryWithOAuth1(t *testing.T) {
	signer := oauth1.Signer{
		Nonce: func() (string, error) { return "abc123", nil },
		Now:   func() time.Time { return time.Unix(1700000000, 0) },
	}
	creds := &credentials.OAuth1Credentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessTokenSecret: "ts"}

	var gotHeader, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
	}))
	defer server.Close()

	a, err := auth.NewAuthorizer(&credentials.Set{OAuth1: creds}, auth.WithSigner(signer))
	require.NoError(t, err)
	client := NewClient(a, WithHTTPClient(server.Client()), WithBaseURL(server.URL+"/2"))

	query := url.Values{"query": {"from:jack"}, "max_results": {"10"}}
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/tweets/search/recent", query, auth.ContextUser, nil, nil))

	want, err := signer.Sign("GET", server.URL+"/2/tweets/search/recent?"+query.Encode(), creds, nil)
	require.NoError(t, err)
	assert.Equal(t, want, gotHeader)
	assert.Equal(t, query.Encode(), gotQuery)
}

func TestClient_DoSendsJSONBody(t *testing.T) {
	var contentType, body string
	client, _ := newPKCEClient(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		body = buf.String()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
	})

	var out map[string]any
	err := client.Do(context.Background(), http.MethodPost, "/tweets", nil, auth.ContextUser, map[string]string{"text": "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"text":"hello"}`, body)
	assert.NotNil(t, out["data"])
}

func TestClient_DoSignsFormBodyWithOAuth1(t *testing.T) {
	signer := oauth1.Signer{
		Nonce: func() (string, error) { return "abc123", nil },
		Now:   func() time.Time { return time.Unix(1700000000, 0) },
	}
	creds := &credentials.OAuth1Credentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessTokenSecret: "ts"}

	var gotHeader, gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
	}))
	defer server.Close()

	a, err := auth.NewAuthorizer(&credentials.Set{OAuth1: creds}, auth.WithSigner(signer))
	require.NoError(t, err)
	client := NewClient(a, WithHTTPClient(server.Client()), WithBaseURL(server.URL+"/1.1"))

	form := url.Values{"status": {"Hello Ladies + Gentlemen"}}
	require.NoError(t, client.Do(context.Background(), http.MethodPost, "/statuses/update.json", nil, auth.ContextUser, form, nil))

	want, err := signer.Sign("POST", server.URL+"/1.1/statuses/update.json", creds,
		[]oauth1.Param{{Key: "status", Value: "Hello Ladies + Gentlemen"}})
	require.NoError(t, err)
	assert.Equal(t, want, gotHeader)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, form.Encode(), gotBody)
}

func TestClient_AuthorizesRedirects(t *testing.T) {
	var headers []string
	client, _ := newPKCEClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = append(headers, r.Header.Get("Authorization"))
		if r.URL.Path == "/2/old" {
			http.Redirect(w, r, "/2/new", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, client.Get(context.Background(), "/old", auth.ContextApp, nil))
	assert.Equal(t, []string{"Bearer app-token", "Bearer app-token"}, headers)
}

func TestClient_RecordsRateLimit(t *testing.T) {
	client, _ := newPKCEClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRateLimitRemaining, "0")
		w.Header().Set(HeaderRateLimitLimit, "15")
		w.Header().Set(HeaderRateLimitReset, "1700000900")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	assert.True(t, client.RateLimit().IsZero())

	err := client.Get(context.Background(), "/users/me", auth.ContextUser, nil)
	rl, ok := IsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, int64(1700000900), rl.ResetAt.Unix())

	snap := client.RateLimit()
	require.NotNil(t, snap.Remaining)
	assert.Equal(t, 0, *snap.Remaining)
	assert.Equal(t, 15, *snap.Limit)
}

func TestClient_TransportError(t *testing.T) {
	client, server := newPKCEClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	err := client.Get(context.Background(), "/users/me", auth.ContextUser, nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.ErrorIs(t, err, ErrAPIClient)
}

func TestClient_AuthorizationErrorIsNotAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	defer server.Close()

	a, err := auth.NewAuthorizer(&credentials.Set{Bearer: &credentials.BearerCredentials{BearerToken: "app"}})
	require.NoError(t, err)
	client := NewClient(a, WithBaseURL(server.URL))

	err = client.Get(context.Background(), "/users/me", auth.ContextUser, nil)
	assert.ErrorIs(t, err, auth.ErrOAuth1Required)
	assert.NotErrorIs(t, err, ErrAPIClient)
}

func TestClient_MeCachesIdentity(t *testing.T) {
	var calls atomic.Int32
	client, _ := newPKCEClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/2/users/me", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"id":"2244994945","username":"XDevelopers","name":"Developers"}}`))
	})

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Identity{ID: "2244994945", Username: "XDevelopers", Name: "Developers"}, me)

	_, err = client.Me(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	client.InvalidateIdentity()
	_, err = client.Me(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_MeParseErrors(t *testing.T) {
	for name, body := range map[string]string{
		"missing data": `{"errors":[{"title":"oops"}]}`,
		"missing id":   `{"data":{"username":"someone"}}`,
		"not json":     `<html></html>`,
	} {
		t.Run(name, func(t *testing.T) {
			client, _ := newPKCEClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := client.Me(context.Background())
			assert.ErrorIs(t, err, auth.ErrUserIdentityParse)
		})
	}
}
