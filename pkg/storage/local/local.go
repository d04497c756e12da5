package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/williamokano/s3transfer/pkg/storage"
)

// Backend stores objects as files under a base directory; the bucket is
// that directory
type Backend struct {
	basePath string
	prefix   string
}

func init() {
	storage.RegisterBackend("local", func(ctx context.Context, cfg storage.Config) (storage.Client, error) {
		return New(cfg)
	})
}

// New creates a new local filesystem backend
func New(cfg storage.Config) (*Backend, error) {
	path := cfg.Bucket
	if v, ok := cfg.Options["path"].(string); ok && v != "" {
		path = v
	}
	if path == "" {
		return nil, fmt.Errorf("%w: missing bucket directory", storage.ErrInvalidConfig)
	}

	// Ensure directory exists
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, storage.WrapError(path, "init", fmt.Errorf("failed to create directory: %w", err))
	}

	return &Backend{
		basePath: path,
		prefix:   cfg.Prefix,
	}, nil
}

func (b *Backend) Type() string   { return "local" }
func (b *Backend) Bucket() string { return b.basePath }

// Upload copies a file into the backend directory
func (b *Backend) Upload(ctx context.Context, localPath, key string) error {
	destFullPath := filepath.Join(b.basePath, b.prefix, key)

	if err := ctx.Err(); err != nil {
		return err
	}

	// Ensure destination directory exists
	if err := os.MkdirAll(filepath.Dir(destFullPath), 0755); err != nil {
		return storage.WrapError(b.basePath, "upload", err)
	}

	source, err := storage.OpenLocal(localPath)
	if err != nil {
		return storage.WrapError(b.basePath, "upload", err)
	}
	defer source.Close()

	dest, err := os.Create(destFullPath)
	if err != nil {
		return storage.WrapError(b.basePath, "upload", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		os.Remove(destFullPath) // Clean up partial file
		return storage.WrapError(b.basePath, "upload", err)
	}

	if err := dest.Close(); err != nil {
		os.Remove(destFullPath)
		return storage.WrapError(b.basePath, "upload", err)
	}

	return nil
}

// Close is a no-op for local backend
func (b *Backend) Close() error {
	return nil
}
