package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Rate limit headers sent by the X API on every response.
const (
	HeaderRateLimitRemaining = "x-rate-limit-remaining"
	HeaderRateLimitLimit     = "x-rate-limit-limit"
	HeaderRateLimitReset     = "x-rate-limit-reset"
)

// maxBodyBytes caps how much of an error body is kept.
const maxBodyBytes = 64 << 10

// RateLimitSnapshot is the rate limit state reported by one response.
// A nil field means the header was absent or malformed.
type RateLimitSnapshot struct {
	Remaining *int
	Limit     *int
	ResetAt   *time.Time
}

// IsZero reports whether no rate limit header was present.
func (s RateLimitSnapshot) IsZero() bool {
	return s.Remaining == nil && s.Limit == nil && s.ResetAt == nil
}

// ParseRateLimit reads the rate limit headers best-effort.
func ParseRateLimit(h http.Header) RateLimitSnapshot {
	var snap RateLimitSnapshot
	if v, ok := headerInt(h, HeaderRateLimitRemaining); ok {
		snap.Remaining = &v
	}
	if v, ok := headerInt(h, HeaderRateLimitLimit); ok {
		snap.Limit = &v
	}
	if v, ok := headerInt64(h, HeaderRateLimitReset); ok {
		reset := time.Unix(v, 0).UTC()
		snap.ResetAt = &reset
	}
	return snap
}

// Classify turns an HTTP response into a decoded value or a typed error.
// The response body is always consumed and closed.
//
// Args:
//   - resp: The response to classify
//   - out: Destination for the JSON body of a 2xx response; nil discards it
//
// Returns:
//   - RateLimitSnapshot: Parsed rate limit headers, for every status
//   - error: *RateLimitedError for 429, *StatusError for other non-2xx,
//     *DeserializeError when a 2xx body does not decode into out
func Classify(resp *http.Response, out any) (RateLimitSnapshot, error) {
	return classify(resp, out, time.Now)
}

func classify(resp *http.Response, out any, now func() time.Time) (RateLimitSnapshot, error) {
	defer resp.Body.Close()
	snap := ParseRateLimit(resp.Header)

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		resetAt := now().UTC()
		if snap.ResetAt != nil {
			resetAt = *snap.ResetAt
		}
		return snap, &RateLimitedError{ResetAt: resetAt}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return snap, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return snap, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return snap, &DeserializeError{Message: err.Error()}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return snap, &DeserializeError{Message: err.Error(), RawBody: string(body)}
	}
	return snap, nil
}

func headerInt(h http.Header, key string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(h.Get(key)))
	return v, err == nil
}

func headerInt64(h http.Header, key string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(h.Get(key)), 10, 64)
	return v, err == nil
}
