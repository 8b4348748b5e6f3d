package api

import (
	"errors"
	"fmt"
	"time"
)

// ErrAPIClient is matched by every error the API client returns for a
// failed call, so callers can tell client failures from authorization
// failures with a single errors.Is check.
var ErrAPIClient = errors.New("api: request failed")

// TransportError represents a network-level failure before any HTTP status
// was received.
//
// Returns from Unwrap:
//   - error: The underlying error from the http.Client
type TransportError struct {
	// Method and URL identify the failed request.
	Method string
	URL    string

	Err error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the transport error.
func (e *TransportError) Unwrap() error { return e.Err }

// Is reports true for ErrAPIClient.
func (e *TransportError) Is(target error) bool { return target == ErrAPIClient }

// RateLimitedError represents an HTTP 429 response.
//
// ResetAt comes from the x-rate-limit-reset header, or the time the
// response was classified when that header is missing. No retry is
// attempted; the caller decides whether to wait.
type RateLimitedError struct {
	ResetAt time.Time
}

// Error implements the error interface for RateLimitedError.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("api: rate limited until %s", e.ResetAt.Local().Format(time.Kitchen))
}

// Is reports true for ErrAPIClient.
func (e *RateLimitedError) Is(target error) bool { return target == ErrAPIClient }

// StatusError represents a non-2xx response other than 429.
type StatusError struct {
	StatusCode int

	// Body is the raw response body, useful for the provider's error detail.
	Body string
}

// Error implements the error interface for StatusError.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Is reports true for ErrAPIClient.
func (e *StatusError) Is(target error) bool { return target == ErrAPIClient }

// DeserializeError represents a 2xx response whose body could not be
// decoded.
type DeserializeError struct {
	Message string
	RawBody string
}

// Error implements the error interface for DeserializeError.
func (e *DeserializeError) Error() string {
	return "api: failed to decode response: " + e.Message
}

// Is reports true for ErrAPIClient.
func (e *DeserializeError) Is(target error) bool { return target == ErrAPIClient }

// IsRateLimited checks if an error is or wraps a RateLimitedError.
//
// Example:
//
//	if rl, ok := api.IsRateLimited(err); ok {
//	    fmt.Printf("try again after %s\n", rl.ResetAt)
//	}
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
