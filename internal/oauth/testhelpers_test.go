package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xplorer/internal/credentials"
	"xplorer/internal/tokenstore"
)

// tokenServer is a fake token endpoint that records every request form.
type tokenServer struct {
	*httptest.Server

	calls atomic.Int32

	mu    sync.Mutex
	forms []url.Values
	auth  []string

	// response is written for every request; status defaults to 200.
	status   int
	response map[string]any
	delay    time.Duration
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{
		response: map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "bearer",
			"expires_in":    7200,
		},
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.mu.Lock()
		ts.forms = append(ts.forms, r.PostForm)
		ts.auth = append(ts.auth, r.Header.Get("Authorization"))
		status, response, delay := ts.status, ts.response, ts.delay
		ts.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) lastForm() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.forms) == 0 {
		return nil
	}
	return ts.forms[len(ts.forms)-1]
}

func (ts *tokenServer) lastAuthorization() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.auth) == 0 {
		return ""
	}
	return ts.auth[len(ts.auth)-1]
}

func publicClient() *credentials.OAuth2Credentials {
	return &credentials.OAuth2Credentials{ClientID: "client-123"}
}

func newTestStore(t *testing.T) *tokenstore.FileStore {
	t.Helper()
	return tokenstore.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
}

func strPtr(s string) *string { return &s }
