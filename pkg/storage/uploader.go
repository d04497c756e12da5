package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Uploader runs a single upload against a client and reports the outcome
type Uploader struct {
	logger zerolog.Logger
}

// NewUploader creates a new uploader
func NewUploader(logger zerolog.Logger) *Uploader {
	return &Uploader{logger: logger}
}

// KeyFor returns the object key for localPath, defaulting to its base name
func KeyFor(localPath, key string) string {
	if key != "" {
		return key
	}
	return filepath.Base(localPath)
}

// Upload sends localPath to the client's bucket under key (or the file's
// base name when key is empty)
func (u *Uploader) Upload(ctx context.Context, client Client, localPath, key string) Result {
	key = KeyFor(localPath, key)

	result := Result{Key: key}
	if client == nil {
		result.Error = fmt.Errorf("%w: no storage client available", ErrClientInit)
		return result
	}

	result.BackendType = client.Type()
	result.Bucket = client.Bucket()

	log := u.logger.With().
		Str("backend", result.BackendType).
		Str("bucket", result.Bucket).
		Str("key", key).
		Str("file", localPath).
		Logger()

	log.Info().Msg("starting upload")

	start := time.Now()
	err := client.Upload(ctx, localPath, key)
	result.Duration = time.Since(start)
	result.Success = err == nil
	result.Error = err

	if err != nil {
		log.Error().
			Err(err).
			Dur("duration", result.Duration).
			Msg("upload failed")
	} else {
		log.Info().
			Dur("duration", result.Duration).
			Msg("upload succeeded")
	}

	return result
}
