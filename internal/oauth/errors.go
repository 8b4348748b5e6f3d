package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrCSRFMismatch is returned when the callback state is missing or does
	// not match the state sent in the authorization request.
	ErrCSRFMismatch = errors.New("oauth: state mismatch in authorization callback")

	// ErrMissingCode is returned when the callback carries neither an error
	// nor an authorization code.
	ErrMissingCode = errors.New("oauth: authorization callback did not include a code")

	// ErrPortInUse is matched by *PortInUseError.
	ErrPortInUse = errors.New("oauth: callback port already in use")

	// ErrNoToken is returned when no token has been stored yet.
	ErrNoToken = errors.New("oauth: not logged in; run 'xplorer auth login'")

	// ErrNoRefreshToken is returned when the access token has expired and
	// cannot be renewed.
	ErrNoRefreshToken = errors.New("oauth: access token expired and no refresh token is stored; run 'xplorer auth login'")
)

// PortInUseError reports that the loopback listener could not bind.
type PortInUseError struct {
	Port int
	Err  error
}

// Error implements the error interface.
func (e *PortInUseError) Error() string {
	return fmt.Sprintf("oauth: callback port %d is already in use; stop the other process or set oauth_callback_port in config.yaml", e.Port)
}

// Unwrap returns the listen error.
func (e *PortInUseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPortInUse) match.
func (e *PortInUseError) Is(target error) bool { return target == ErrPortInUse }

// AuthorizationError is an error reported by the provider on the redirect,
// for example when the user denies access.
type AuthorizationError struct {
	Code        string
	Description string
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: authorization failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: authorization failed: %s", e.Code)
}

// ExchangeError wraps a failed call to the token endpoint.
type ExchangeError struct {
	// Op is "exchange" for the authorization code grant and "refresh" for
	// the refresh token grant.
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth: token %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error, often an *oauth2.RetrieveError.
func (e *ExchangeError) Unwrap() error { return e.Err }
