package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	ErrClientInit       = errors.New("storage client initialization failed")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrConnFailed       = errors.New("connection failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("file not found")
	ErrTimeout          = errors.New("operation timeout")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// IsRetryable returns true if error should trigger a retry
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnFailed) || errors.Is(err, ErrTimeout)
}

// IsCritical returns true if error should stop all operations
func IsCritical(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrInvalidConfig)
}

// WrapError adds context to an error
func WrapError(backend, operation string, err error) error {
	return fmt.Errorf("%s (%s): %w", operation, backend, err)
}

// OpenLocal opens a file about to be uploaded, tagging missing files and
// permission problems with ErrNotFound and ErrPermissionDenied
func OpenLocal(localPath string) (*os.File, error) {
	f, err := os.Open(localPath)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return nil, err
	}
}
