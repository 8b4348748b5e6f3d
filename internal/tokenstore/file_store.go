package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"xplorer/pkg/logging"
)

const (
	// lockTimeout bounds how long Update waits for another process.
	lockTimeout       = 10 * time.Second
	lockRetryInterval = 100 * time.Millisecond
)

// FileStore keeps the token record in a JSON file.
//
// SECURITY: The directory is created 0700 and the file 0600. Writes go to
// a temporary file in the same directory followed by a rename, so readers
// never observe a partially written record. Token values are never logged.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path. Nothing is created until the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the record. A missing file is (nil, nil); malformed content is
// a *ParseError and is never treated as absent.
func (s *FileStore) Load(_ context.Context) (*Record, error) {
	// #nosec G304 -- path comes from configuration, not request input
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	return decode(s.path, data)
}

// Save atomically replaces the token file.
func (s *FileStore) Save(_ context.Context, rec *Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		logging.Audit("TokenStore", "token_store_failed", slog.String("path", s.path), slog.String("error", err.Error()))
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	logging.Audit("TokenStore", "token_stored",
		slog.String("path", s.path),
		slog.Bool("has_refresh_token", rec.HasRefreshToken()),
		slog.Bool("has_expiry", rec.ExpiresAt != nil),
	)
	return nil
}

// Delete removes the token file. Deleting a missing file is not an error.
func (s *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	logging.Audit("TokenStore", "token_deleted", slog.String("path", s.path))
	return nil
}

// Update serializes read-modify-write cycles across processes with an
// advisory lock on "<path>.lock". The record is loaded after the lock is
// held, so fn sees any refresh another process completed meanwhile.
func (s *FileStore) Update(ctx context.Context, fn func(*Record) (*Record, error)) (*Record, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	fileLock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire token lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire token lock: timeout after %v", lockTimeout)
	}
	defer func() { _ = fileLock.Unlock() }()

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
