package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/williamokano/s3transfer/pkg/auth"
)

// DefaultType is the backend used when the configuration names none
const DefaultType = "s3"

// Client uploads local files to a single bucket (or bucket-like location)
type Client interface {
	// Type returns the backend type (s3, local, backblaze, ssh)
	Type() string

	// Bucket returns the bucket, directory or remote path objects are written to
	Bucket() string

	// Upload copies a local file to the bucket under key
	// localPath: path to a local file
	// key: object name relative to the configured prefix (e.g., "report.tar.gz")
	Upload(ctx context.Context, localPath string, key string) error

	// Close releases resources (connections, sessions)
	Close() error
}

// Config represents storage client configuration
type Config struct {
	Type           string                 `json:"type"`             // Backend type: s3, local, backblaze, ssh
	Bucket         string                 `json:"bucket"`           // Bucket name, or base directory for local/ssh
	Region         string                 `json:"region"`           // Region for S3
	Endpoint       string                 `json:"endpoint"`         // Optional: S3-compatible endpoint, or host:port for ssh
	Prefix         string                 `json:"prefix"`           // Object key prefix
	ForcePathStyle bool                   `json:"force_path_style"` // For MinIO/LocalStack
	SkipVerify     bool                   `json:"skip_verify"`      // Skip the bucket reachability check at init
	Credentials    auth.Credentials       `json:"-"`                // Profile or explicit key pair
	Options        map[string]interface{} `json:"options"`          // Backend-specific options
	Logger         zerolog.Logger         `json:"-"`                // Receives retry warnings
}

// Result represents outcome of an upload
type Result struct {
	BackendType string
	Bucket      string
	Key         string
	Success     bool
	Error       error
	Duration    time.Duration
}
