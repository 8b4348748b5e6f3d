package credentials

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is returned when no credential slot can be populated.
var ErrNoCredentials = errors.New("credentials: no credentials found; set X_API_KEY/X_CLIENT_ID/X_BEARER_TOKEN in the environment or a .env file")

// FileError reports a dotenv file that exists but could not be read or
// parsed. Load logs it and continues with the remaining files.
type FileError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("credentials: failed to read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}
