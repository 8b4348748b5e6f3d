package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Record is a persisted OAuth 2.0 token. Nil fields are written as JSON
// null and read back as nil.
type Record struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken *string    `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// Store persists a single Record.
//
// Load returns (nil, nil) when nothing has been stored. Update loads the
// current record under a writer lock, passes it (possibly nil) to fn, and
// saves the record fn returns. Returning the input unchanged skips the
// write.
type Store interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context) error
	Update(ctx context.Context, fn func(*Record) (*Record, error)) (*Record, error)
}

// ErrTokenParse marks stored token data that is not a valid Record.
var ErrTokenParse = errors.New("tokenstore: malformed token record")

// ErrEmptyAccessToken is returned by Save for a record Load would reject.
var ErrEmptyAccessToken = errors.New("tokenstore: record has no access token")

// ParseError reports where the malformed record was found.
type ParseError struct {
	Location string
	Err      error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("tokenstore: malformed token record in %s: %v", e.Location, e.Err)
}

// Unwrap returns the decoding error.
func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTokenParse) match.
func (e *ParseError) Is(target error) bool { return target == ErrTokenParse }

// FromOAuth2Token converts a token endpoint response. A zero expiry and an
// empty refresh token become nil.
func FromOAuth2Token(tok *oauth2.Token) *Record {
	rec := &Record{AccessToken: tok.AccessToken}
	if tok.RefreshToken != "" {
		rt := tok.RefreshToken
		rec.RefreshToken = &rt
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC().Truncate(time.Second)
		rec.ExpiresAt = &exp
	}
	return rec
}

// OAuth2Token converts the record for use with an oauth2.Config.
func (r *Record) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{AccessToken: r.AccessToken, TokenType: "Bearer"}
	if r.RefreshToken != nil {
		tok.RefreshToken = *r.RefreshToken
	}
	if r.ExpiresAt != nil {
		tok.Expiry = *r.ExpiresAt
	}
	return tok
}

// HasRefreshToken reports whether a non-empty refresh token is stored.
func (r *Record) HasRefreshToken() bool {
	return r != nil && r.RefreshToken != nil && *r.RefreshToken != ""
}

func decode(location string, data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &ParseError{Location: location, Err: err}
	}
	if rec.AccessToken == "" {
		return nil, &ParseError{Location: location, Err: errors.New("missing access_token")}
	}
	return &rec, nil
}

func encode(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("tokenstore: nil record")
	}
	if rec.AccessToken == "" {
		return nil, ErrEmptyAccessToken
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token: %w", err)
	}
	return data, nil
}
