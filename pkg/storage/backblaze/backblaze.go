package backblaze

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/kurin/blazer/b2"

	"github.com/williamokano/s3transfer/pkg/auth"
	"github.com/williamokano/s3transfer/pkg/storage"
)

// Backend uploads to a Backblaze B2 bucket. The key pair is the B2 account
// (or key) ID and application key.
type Backend struct {
	client *b2.Client
	bucket *b2.Bucket
	name   string
	prefix string
	retry  storage.RetryConfig
}

func init() {
	storage.RegisterBackend("backblaze", func(ctx context.Context, cfg storage.Config) (storage.Client, error) {
		return New(ctx, cfg)
	})
}

// New creates a new Backblaze B2 backend
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket", storage.ErrInvalidConfig)
	}
	if cfg.Credentials.Mode() != auth.ModeStaticKeys {
		return nil, fmt.Errorf("%w: backblaze requires an account id and application key", storage.ErrInvalidConfig)
	}

	client, err := b2.NewClient(ctx, cfg.Credentials.Keys.AccessKey, cfg.Credentials.Keys.SecretKey)
	if err != nil {
		return nil, storage.WrapError(cfg.Bucket, "init", fmt.Errorf("%w: %w", storage.ErrAuthFailed, err))
	}

	bucket, err := client.Bucket(ctx, cfg.Bucket)
	if err != nil {
		return nil, storage.WrapError(cfg.Bucket, "get bucket", err)
	}

	return &Backend{
		client: client,
		bucket: bucket,
		name:   cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		retry:  storage.LogRetries(storage.DefaultRetryConfig(), cfg.Logger, "backblaze"),
	}, nil
}

func (b *Backend) Type() string   { return "backblaze" }
func (b *Backend) Bucket() string { return b.name }

// Upload sends a file to B2
func (b *Backend) Upload(ctx context.Context, localPath, key string) error {
	return storage.WithRetry(ctx, b.retry, func() error {
		file, err := storage.OpenLocal(localPath)
		if err != nil {
			return err
		}
		defer file.Close()

		writer := b.bucket.Object(path.Join(b.prefix, key)).NewWriter(ctx)

		if _, err := io.Copy(writer, file); err != nil {
			writer.Close()
			return storage.WrapError(b.name, "upload", fmt.Errorf("%w: %w", storage.ErrConnFailed, err))
		}

		if err := writer.Close(); err != nil {
			return storage.WrapError(b.name, "upload", fmt.Errorf("%w: %w", storage.ErrConnFailed, err))
		}

		return nil
	})
}

// Close releases resources
func (b *Backend) Close() error {
	return nil
}
