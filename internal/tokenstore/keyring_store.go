package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zalando/go-keyring"

	"xplorer/pkg/logging"
)

const (
	// KeyringService is the service name used in the OS keyring.
	KeyringService = "xplorer"
	// KeyringUser is the account under which the record is stored.
	KeyringUser = "oauth2-token"
)

// KeyringStore keeps the token record in the operating system keyring
// (Keychain, Secret Service, Windows Credential Manager).
//
// The keyring offers no cross-process locking; Update only serializes
// callers within this process.
type KeyringStore struct {
	mu      sync.Mutex
	service string
	user    string
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore returns a store using the default service and user.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: KeyringService, user: KeyringUser}
}

func (s *KeyringStore) location() string {
	return "keyring " + s.service + "/" + s.user
}

// Load reads the record. A missing entry is (nil, nil).
func (s *KeyringStore) Load(_ context.Context) (*Record, error) {
	secret, err := keyring.Get(s.service, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token from keyring: %w", err)
	}
	return decode(s.location(), []byte(secret))
}

// Save replaces the keyring entry.
func (s *KeyringStore) Save(_ context.Context, rec *Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service, s.user, string(data)); err != nil {
		return fmt.Errorf("failed to write token to keyring: %w", err)
	}
	logging.Audit("TokenStore", "token_stored",
		slog.String("path", s.location()),
		slog.Bool("has_refresh_token", rec.HasRefreshToken()),
		slog.Bool("has_expiry", rec.ExpiresAt != nil),
	)
	return nil
}

// Delete removes the keyring entry. Deleting a missing entry is not an error.
func (s *KeyringStore) Delete(_ context.Context) error {
	if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	logging.Audit("TokenStore", "token_deleted", slog.String("path", s.location()))
	return nil
}

// Update runs fn on the current record while holding the store mutex.
func (s *KeyringStore) Update(ctx context.Context, fn func(*Record) (*Record, error)) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil || next == current {
		return current, nil
	}
	if err := s.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
