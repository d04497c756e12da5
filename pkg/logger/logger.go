package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/williamokano/s3transfer/pkg/config"
)

// MaxBackups is the number of rolled-over log files the rotation handler keeps
const MaxBackups = 10

// ErrInvalidHandler is returned for a log handler other than console, file or rotation
var ErrInvalidHandler = errors.New("invalid log handler")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger for the configured handler. The returned closer
// releases the log file, if any.
func New(cfg config.Log) (zerolog.Logger, io.Closer, error) {
	out, closer, err := Output(cfg)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	if cfg.Format == "console" && cfg.Handler != config.HandlerConsole {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true}
	}

	logger := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	return logger, closer, nil
}

// Output returns the writer behind a log handler
func Output(cfg config.Log) (io.Writer, io.Closer, error) {
	switch cfg.Handler {
	case config.HandlerConsole:
		if cfg.Format == "json" {
			return os.Stdout, nopCloser{}, nil
		}
		return zerolog.ConsoleWriter{Out: os.Stdout}, nopCloser{}, nil

	case config.HandlerFile:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, f, nil

	case config.HandlerRotation:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    RolloverMegabytes(cfg.RolloverSize),
			MaxBackups: MaxBackups,
		}
		return lj, lj, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q (expected one of %v)", ErrInvalidHandler, cfg.Handler, config.Handlers)
	}
}

// RolloverMegabytes converts a rollover size in bytes to lumberjack's
// megabyte granularity, never below 1
func RolloverMegabytes(size int64) int {
	mb := size / (1024 * 1024)
	if mb < 1 {
		return 1
	}
	return int(mb)
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
