package cli

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"

	"xplorer/internal/api"
	"xplorer/internal/auth"
	"xplorer/internal/credentials"
	"xplorer/internal/oauth"
)

func TestAuthRequiredError(t *testing.T) {
	t.Run("error message includes reason and guidance", func(t *testing.T) {
		err := &AuthRequiredError{Reason: oauth.ErrNoToken}
		msg := err.Error()

		if !strings.Contains(msg, "not logged in") {
			t.Error("expected error message to contain the reason")
		}
		if !strings.Contains(msg, "xplorer auth login") {
			t.Error("expected error message to contain login command")
		}
		if !strings.Contains(msg, "xplorer auth status") {
			t.Error("expected error message to contain status command")
		}
	})

	t.Run("Is returns true for same type", func(t *testing.T) {
		err1 := &AuthRequiredError{Reason: oauth.ErrNoToken}
		err2 := &AuthRequiredError{Reason: auth.ErrNoAuthMethod}

		if !err1.Is(err2) {
			t.Error("expected Is to return true for same type")
		}
	})

	t.Run("Is returns false for different type", func(t *testing.T) {
		err1 := &AuthRequiredError{}
		if err1.Is(errors.New("some error")) {
			t.Error("expected Is to return false for different type")
		}
	})

	t.Run("errors.Is reaches the wrapped reason", func(t *testing.T) {
		wrappedErr := fmt.Errorf("wrapped: %w", &AuthRequiredError{Reason: oauth.ErrNoToken})

		if !errors.Is(wrappedErr, &AuthRequiredError{}) {
			t.Error("expected errors.Is to find wrapped AuthRequiredError")
		}
		if !errors.Is(wrappedErr, oauth.ErrNoToken) {
			t.Error("expected errors.Is to find the reason")
		}
	})
}

func TestAuthExpiredError(t *testing.T) {
	err := &AuthExpiredError{Reason: oauth.ErrNoRefreshToken}
	msg := err.Error()

	if !strings.Contains(msg, "Authentication expired") {
		t.Error("expected error message to mention expiry")
	}
	if !strings.Contains(msg, "xplorer auth login") {
		t.Error("expected error message to contain login command")
	}
	if !errors.Is(err, oauth.ErrNoRefreshToken) {
		t.Error("expected Unwrap to expose the reason")
	}
	if !errors.Is(fmt.Errorf("x: %w", err), &AuthExpiredError{}) {
		t.Error("expected errors.Is to find wrapped AuthExpiredError")
	}
}

func TestAuthFailedError(t *testing.T) {
	reason := &oauth.AuthorizationError{Code: "access_denied"}
	err := &AuthFailedError{Reason: reason}
	msg := err.Error()

	if !strings.Contains(msg, "access_denied") {
		t.Error("expected error message to contain the reason")
	}
	if !strings.Contains(msg, "xplorer auth login") {
		t.Error("expected error message to contain login command")
	}
	if err.Unwrap() != reason {
		t.Error("expected Unwrap to return the reason")
	}
	if err.Is(&AuthRequiredError{}) {
		t.Error("expected Is to return false for a different CLI error")
	}
}

func TestExplain(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if Explain(nil) != nil {
			t.Error("expected nil")
		}
	})

	required := []error{
		oauth.ErrNoToken,
		auth.ErrNoAuthMethod,
		auth.ErrOAuth1Required,
		credentials.ErrNoCredentials,
		fmt.Errorf("header: %w", oauth.ErrNoToken),
	}
	for _, in := range required {
		t.Run("required: "+in.Error(), func(t *testing.T) {
			out := Explain(in)
			if !errors.Is(out, &AuthRequiredError{}) {
				t.Fatalf("expected AuthRequiredError, got %T", out)
			}
			if !errors.Is(out, in) {
				t.Error("expected the original error to stay reachable")
			}
		})
	}

	expired := []error{
		oauth.ErrNoRefreshToken,
		&oauth.ExchangeError{Op: "refresh", Err: errors.New("invalid_grant")},
	}
	for _, in := range expired {
		t.Run("expired: "+in.Error(), func(t *testing.T) {
			if out := Explain(in); !errors.Is(out, &AuthExpiredError{}) {
				t.Fatalf("expected AuthExpiredError, got %T", out)
			}
		})
	}

	failed := []error{
		oauth.ErrCSRFMismatch,
		oauth.ErrMissingCode,
		&oauth.AuthorizationError{Code: "access_denied"},
		&oauth.ExchangeError{Op: "exchange", Err: errors.New("invalid_request")},
	}
	for _, in := range failed {
		t.Run("failed: "+in.Error(), func(t *testing.T) {
			if out := Explain(in); !errors.Is(out, &AuthFailedError{}) {
				t.Fatalf("expected AuthFailedError, got %T", out)
			}
		})
	}

	interrupted := []error{
		context.Canceled,
		&oauth.ExchangeError{Op: "refresh", Err: fmt.Errorf("Post %q: %w", "https://api.x.com/2/oauth2/token", context.Canceled)},
		&oauth.ExchangeError{Op: "refresh", Err: context.DeadlineExceeded},
	}
	for _, in := range interrupted {
		t.Run("interrupted: "+in.Error(), func(t *testing.T) {
			out := Explain(in)
			if errors.Is(out, &AuthExpiredError{}) || errors.Is(out, &AuthFailedError{}) {
				t.Fatalf("interrupted refresh must not ask for a new login, got %T", out)
			}
			if out != in {
				t.Error("expected the error to pass through unchanged")
			}
		})
	}

	t.Run("transport errors are classified", func(t *testing.T) {
		in := &api.TransportError{
			Method: "GET",
			URL:    "https://api.x.com/2/users/me",
			Err:    &url.Error{Op: "Get", URL: "https://api.x.com/2/users/me", Err: errors.New("dial tcp: connect: connection refused")},
		}
		out := Explain(in)

		var connErr *ConnectionError
		if !errors.As(out, &connErr) {
			t.Fatalf("expected ConnectionError, got %T", out)
		}
		if connErr.Type != ConnectionErrorNetwork {
			t.Errorf("expected network type, got %v", connErr.Type)
		}
		if connErr.Endpoint != "https://api.x.com/2/users/me" {
			t.Errorf("unexpected endpoint %q", connErr.Endpoint)
		}
	})

	t.Run("other errors pass through", func(t *testing.T) {
		in := &api.RateLimitedError{}
		if out := Explain(in); out != error(in) {
			t.Errorf("expected the error unchanged, got %v", out)
		}
	})
}

func TestConnectionErrorType(t *testing.T) {
	tests := []struct {
		name     string
		errType  ConnectionErrorType
		expected string
	}{
		{"unknown type", ConnectionErrorUnknown, "Connection error"},
		{"TLS type", ConnectionErrorTLS, "TLS certificate error"},
		{"network type", ConnectionErrorNetwork, "Network error"},
		{"timeout type", ConnectionErrorTimeout, "Connection timeout"},
		{"DNS type", ConnectionErrorDNS, "DNS resolution error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.errType.String()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestConnectionError(t *testing.T) {
	t.Run("TLS error message includes certificate guidance", func(t *testing.T) {
		err := &ConnectionError{
			Endpoint: "https://api.x.com",
			Type:     ConnectionErrorTLS,
			Reason:   errors.New("x509: certificate is not valid for hostname"),
		}
		msg := err.Error()

		if !strings.Contains(msg, "TLS certificate verification failed") {
			t.Error("expected error message to mention TLS verification")
		}
		if !strings.Contains(msg, "api.x.com") {
			t.Error("expected error message to contain endpoint")
		}
		if !strings.Contains(msg, "proxy") {
			t.Error("expected error message to mention intercepting proxies")
		}
	})

	t.Run("Network error message includes connectivity guidance", func(t *testing.T) {
		err := &ConnectionError{
			Endpoint: "https://api.x.com",
			Type:     ConnectionErrorNetwork,
			Reason:   errors.New("connection refused"),
		}
		msg := err.Error()

		if !strings.Contains(msg, "Connection failed") {
			t.Error("expected error message to mention connection failed")
		}
		if !strings.Contains(msg, "api.x.com") {
			t.Error("expected error message to contain endpoint")
		}
		if !strings.Contains(msg, "network connection") {
			t.Error("expected error message to mention the network connection")
		}
	})

	t.Run("Timeout error message includes timeout guidance", func(t *testing.T) {
		err := &ConnectionError{
			Endpoint: "https://api.x.com",
			Type:     ConnectionErrorTimeout,
			Reason:   errors.New("context deadline exceeded"),
		}
		msg := err.Error()

		if !strings.Contains(msg, "timed out") {
			t.Error("expected error message to mention timeout")
		}
		if !strings.Contains(msg, "api.x.com") {
			t.Error("expected error message to contain endpoint")
		}
	})

	t.Run("DNS error message includes resolution guidance", func(t *testing.T) {
		err := &ConnectionError{
			Endpoint: "https://api.x.com",
			Type:     ConnectionErrorDNS,
			Reason:   errors.New("no such host"),
		}
		msg := err.Error()

		if !strings.Contains(msg, "DNS resolution failed") {
			t.Error("expected error message to mention DNS resolution")
		}
		if !strings.Contains(msg, "api.x.com") {
			t.Error("expected error message to contain endpoint")
		}
	})

	t.Run("Unknown error message shows basic info", func(t *testing.T) {
		err := &ConnectionError{
			Endpoint: "https://api.x.com",
			Type:     ConnectionErrorUnknown,
			Reason:   errors.New("some unknown error"),
		}
		msg := err.Error()

		if !strings.Contains(msg, "Connection failed") {
			t.Error("expected error message to mention connection failed")
		}
		if !strings.Contains(msg, "some unknown error") {
			t.Error("expected error message to contain reason")
		}
	})

	t.Run("Unwrap returns underlying error", func(t *testing.T) {
		reason := errors.New("connection refused")
		err := &ConnectionError{
			Endpoint: "https://example.com",
			Type:     ConnectionErrorNetwork,
			Reason:   reason,
		}

		unwrapped := err.Unwrap()
		if unwrapped != reason {
			t.Errorf("expected unwrapped error to be %v, got %v", reason, unwrapped)
		}
	})

	t.Run("Is returns true for same type", func(t *testing.T) {
		err1 := &ConnectionError{Endpoint: "https://example.com", Type: ConnectionErrorTLS}
		err2 := &ConnectionError{Endpoint: "https://other.com", Type: ConnectionErrorNetwork}

		if !err1.Is(err2) {
			t.Error("expected Is to return true for same type")
		}
	})

	t.Run("Is returns false for different type", func(t *testing.T) {
		err1 := &ConnectionError{Endpoint: "https://example.com", Type: ConnectionErrorTLS}
		err2 := errors.New("some error")

		if err1.Is(err2) {
			t.Error("expected Is to return false for different type")
		}
	})

	t.Run("errors.Is works with wrapped error", func(t *testing.T) {
		connErr := &ConnectionError{Endpoint: "https://example.com", Type: ConnectionErrorTLS}
		wrappedErr := fmt.Errorf("wrapped: %w", connErr)

		if !errors.Is(wrappedErr, &ConnectionError{}) {
			t.Error("expected errors.Is to find wrapped ConnectionError")
		}
	})
}

func TestClassifyConnectionError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		result := ClassifyConnectionError(nil, "https://example.com")
		if result != nil {
			t.Error("expected nil for nil error")
		}
	})

	t.Run("x509 certificate error is classified as TLS", func(t *testing.T) {
		// Simulate an x509 error message
		err := errors.New("Get https://example.com: x509: certificate is not valid for hostname")
		result := ClassifyConnectionError(err, "https://example.com")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorTLS {
			t.Errorf("expected TLS error type, got %v", result.Type)
		}
	})

	t.Run("x509 HostnameError is classified as TLS", func(t *testing.T) {
		// Create a real x509.HostnameError
		cert := &x509.Certificate{}
		hostErr := x509.HostnameError{Certificate: cert, Host: "example.com"}
		err := fmt.Errorf("connection failed: %w", &hostErr)
		result := ClassifyConnectionError(err, "https://example.com")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorTLS {
			t.Errorf("expected TLS error type, got %v", result.Type)
		}
	})

	t.Run("connection refused is classified as network", func(t *testing.T) {
		err := errors.New("dial tcp 127.0.0.1:443: connect: connection refused")
		result := ClassifyConnectionError(err, "https://localhost")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorNetwork {
			t.Errorf("expected Network error type, got %v", result.Type)
		}
	})

	t.Run("timeout error is classified as timeout", func(t *testing.T) {
		err := errors.New("context deadline exceeded")
		result := ClassifyConnectionError(err, "https://example.com")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorTimeout {
			t.Errorf("expected Timeout error type, got %v", result.Type)
		}
	})

	t.Run("DNS error is classified as DNS", func(t *testing.T) {
		dnsErr := &net.DNSError{
			Err:  "no such host",
			Name: "nonexistent.example.com",
		}
		err := fmt.Errorf("lookup failed: %w", dnsErr)
		result := ClassifyConnectionError(err, "https://nonexistent.example.com")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorDNS {
			t.Errorf("expected DNS error type, got %v", result.Type)
		}
	})

	t.Run("unknown error is classified as unknown", func(t *testing.T) {
		err := errors.New("some random error")
		result := ClassifyConnectionError(err, "https://example.com")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorUnknown {
			t.Errorf("expected Unknown error type, got %v", result.Type)
		}
	})

	t.Run("TLS handshake error is classified as TLS", func(t *testing.T) {
		err := errors.New("TLS handshake error: remote error: tls: bad certificate")
		result := ClassifyConnectionError(err, "https://example.com")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorTLS {
			t.Errorf("expected TLS error type, got %v", result.Type)
		}
	})

	t.Run("certificate signed by unknown authority is TLS", func(t *testing.T) {
		err := errors.New("x509: certificate signed by unknown authority")
		result := ClassifyConnectionError(err, "https://example.com")

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.Type != ConnectionErrorTLS {
			t.Errorf("expected TLS error type, got %v", result.Type)
		}
	})
}

func TestIsTLSError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"x509 certificate invalid", errors.New("x509: certificate is invalid"), true},
		{"certificate signed by unknown authority", errors.New("certificate signed by unknown authority"), true},
		{"TLS handshake error", errors.New("TLS handshake failed"), true},
		{"certificate has expired", errors.New("certificate has expired"), true},
		{"connection refused", errors.New("connection refused"), false},
		{"timeout", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isTLSError(tt.err)
			if result != tt.expected {
				t.Errorf("isTLSError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}
