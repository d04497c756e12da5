package s3

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/williamokano/s3transfer/pkg/auth"
	"github.com/williamokano/s3transfer/pkg/storage"
)

type Backend struct {
	client   *s3.Client
	bucket   string
	prefix   string
	uploader *manager.Uploader
	retry    storage.RetryConfig
}

func init() {
	storage.RegisterBackend("s3", func(ctx context.Context, cfg storage.Config) (storage.Client, error) {
		return New(ctx, cfg)
	})
}

// New creates a new S3 client
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket", storage.ErrInvalidConfig)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, auth.AWSLoadOptions(cfg.Region, cfg.Credentials)...)
	if err != nil {
		return nil, storage.WrapError(cfg.Bucket, "load aws config", fmt.Errorf("%w: %w", storage.ErrAuthFailed, err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	if !cfg.SkipVerify {
		_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(cfg.Bucket),
		})
		if err != nil {
			return nil, storage.WrapError(cfg.Bucket, "connection test", fmt.Errorf("%w: %w", storage.ErrConnFailed, err))
		}
	}

	return &Backend{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		uploader: manager.NewUploader(client),
		retry:    storage.LogRetries(storage.DefaultRetryConfig(), cfg.Logger, "s3"),
	}, nil
}

func (b *Backend) Type() string   { return "s3" }
func (b *Backend) Bucket() string { return b.bucket }

// Upload sends a file to S3 using the multipart-capable upload manager
func (b *Backend) Upload(ctx context.Context, localPath, key string) error {
	return storage.WithRetry(ctx, b.retry, func() error {
		file, err := storage.OpenLocal(localPath)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = b.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(ObjectKey(b.prefix, key)),
			Body:        file,
			ContentType: aws.String(contentType(localPath)),
		})
		if err != nil {
			return storage.WrapError(b.bucket, "upload", classify(err))
		}

		return nil
	})
}

// Close is a no-op for S3
func (b *Backend) Close() error {
	return nil
}

// ObjectKey joins the configured prefix and key
func ObjectKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

// classify tags transport failures so WithRetry can retry them
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", storage.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", storage.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", storage.ErrConnFailed, err)
	}
	return err
}

func contentType(localPath string) string {
	if strings.HasSuffix(localPath, ".tar.gz") || strings.HasSuffix(localPath, ".tgz") {
		return "application/gzip"
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
