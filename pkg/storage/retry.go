package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// OnRetry is called before sleeping ahead of the next attempt
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig returns sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// LogRetries returns cfg with an OnRetry hook that logs every retry
func LogRetries(cfg RetryConfig, logger zerolog.Logger, backend string) RetryConfig {
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn().
			Str("backend", backend).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("upload attempt failed, retrying")
	}
	return cfg
}

// WithRetry executes operation with retry logic
func WithRetry(ctx context.Context, cfg RetryConfig, op func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		lastErr = err

		if IsCritical(err) || !IsRetryable(err) {
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}

		select {
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
