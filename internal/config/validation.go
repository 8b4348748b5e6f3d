package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) {
	*ve = append(*ve, ValidationError{Field: field, Value: value, Message: message})
}

// Validate checks the configuration for values that would break the
// authorization flow or request signing.
func (c Config) Validate() error {
	var errs ValidationErrors

	if c.OAuthCallbackPort < 0 || c.OAuthCallbackPort > 65535 {
		errs.Add("oauth_callback_port", "must be between 0 and 65535", c.OAuthCallbackPort)
	}
	if !strings.HasPrefix(c.OAuthCallbackPath, "/") {
		errs.Add("oauth_callback_path", "must start with '/'", c.OAuthCallbackPath)
	}
	for field, raw := range map[string]string{
		"authorize_url": c.AuthorizeURL,
		"token_url":     c.TokenURL,
		"api_base_url":  c.APIBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add(field, "must be an absolute URL", raw)
		}
	}
	switch c.TokenStorage {
	case TokenStorageFile, TokenStorageKeyring:
	default:
		errs.Add("token_storage", "must be 'file' or 'keyring'", c.TokenStorage)
	}
	if c.LoginTimeout < 0 {
		errs.Add("login_timeout", "must not be negative", c.LoginTimeout)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
