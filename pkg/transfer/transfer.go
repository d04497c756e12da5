package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/williamokano/s3transfer/pkg/archive"
	"github.com/williamokano/s3transfer/pkg/notify"
	"github.com/williamokano/s3transfer/pkg/storage"

	// Import backends to register them
	_ "github.com/williamokano/s3transfer/pkg/storage/backblaze"
	_ "github.com/williamokano/s3transfer/pkg/storage/local"
	_ "github.com/williamokano/s3transfer/pkg/storage/s3"
	_ "github.com/williamokano/s3transfer/pkg/storage/ssh"
)

// Notification reasons, used as the subject suffix
const (
	ReasonNotFound   = "file not found"
	ReasonCompress   = "failed compress to tar"
	ReasonClientInit = "can't initialize storage client"
	ReasonUpload     = "failed uploading"
	ReasonSuccess    = "uploaded"
)

// ClientFactory builds the storage client for a workflow
type ClientFactory func(ctx context.Context, cfg storage.Config) (storage.Client, error)

// Request describes a single transfer
type Request struct {
	SourcePath   string
	ArchiveName  string // empty: "<SourcePath>.tar.gz"
	KeyName      string // empty: archive base name
	RemoveSource bool
}

// Outcome is the result of one run. Err is nil on success.
type Outcome struct {
	Stage       Stage
	Err         error
	ArchivePath string
	Bucket      string
	Key         string
	Duration    time.Duration
}

// Success reports whether the run completed without error
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Options configures a workflow
type Options struct {
	Storage storage.Config

	// Notifier receives one message per run. Nil means a silent workflow.
	Notifier notify.Notifier

	// RemoveSource overrides the default: silent workflows remove the
	// source, notifying workflows keep it.
	RemoveSource *bool

	Logger        zerolog.Logger
	Hostname      string           // defaults to os.Hostname()
	Now           func() time.Time // defaults to time.Now
	ClientFactory ClientFactory    // defaults to storage.Init
	Archiver      *archive.Archiver
}

// Workflow compresses a source, uploads the archive and optionally removes
// the source. One storage client is built per workflow and reused.
type Workflow struct {
	logger       zerolog.Logger
	archiver     *archive.Archiver
	uploader     *storage.Uploader
	client       storage.Client
	initErr      error
	bucket       string
	notifier     notify.Notifier
	removeSource bool
	hostname     string
	now          func() time.Time
	remove       func(path string) error
}

// New builds a workflow and its storage client. A client init failure does
// not fail construction; it is reported by the first run.
func New(ctx context.Context, opts Options) *Workflow {
	logger := opts.Logger.With().Str("component", "transfer").Logger()

	notifier := opts.Notifier
	removeSource := notifier == nil
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if opts.RemoveSource != nil {
		removeSource = *opts.RemoveSource
	}

	hostname := opts.Hostname
	if hostname == "" {
		if h, err := os.Hostname(); err == nil {
			hostname = h
		} else {
			hostname = "unknown"
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	factory := opts.ClientFactory
	if factory == nil {
		factory = storage.Init
	}

	archiver := opts.Archiver
	if archiver == nil {
		archiver = archive.New(opts.Logger)
	}

	w := &Workflow{
		logger:       logger,
		archiver:     archiver,
		uploader:     storage.NewUploader(opts.Logger),
		bucket:       opts.Storage.Bucket,
		notifier:     notifier,
		removeSource: removeSource,
		hostname:     hostname,
		now:          now,
		remove:       os.RemoveAll,
	}

	storageCfg := opts.Storage
	storageCfg.Logger = opts.Logger
	client, err := factory(ctx, storageCfg)
	switch {
	case err != nil:
		w.initErr = err
	case client == nil:
		w.initErr = fmt.Errorf("%w: no client returned", ErrClientInit)
	default:
		w.client = client
		w.bucket = client.Bucket()
	}

	if w.initErr != nil {
		logger.Error().
			Err(w.initErr).
			Str("backend", opts.Storage.Type).
			Str("bucket", opts.Storage.Bucket).
			Str("auth_mode", opts.Storage.Credentials.Mode().String()).
			Msg("failed to initialize storage client")
	} else {
		logger.Debug().
			Str("backend", client.Type()).
			Str("bucket", w.bucket).
			Str("auth_mode", opts.Storage.Credentials.Mode().String()).
			Msg("initialized storage client")
	}

	return w
}

// RemoveSource reports the workflow's default for Request.RemoveSource
func (w *Workflow) RemoveSource() bool {
	return w.removeSource
}

// Close releases the storage client
func (w *Workflow) Close() error {
	if w.client == nil {
		return nil
	}
	return w.client.Close()
}

// Transfer runs a request built from the workflow defaults and returns the
// archive path
func (w *Workflow) Transfer(ctx context.Context, sourcePath, keyName, archiveName string) (string, error) {
	out := w.Run(ctx, Request{
		SourcePath:   sourcePath,
		ArchiveName:  archiveName,
		KeyName:      keyName,
		RemoveSource: w.removeSource,
	})
	return out.ArchivePath, out.Err
}

// Run executes compress, upload and cleanup. Exactly one notification is
// sent per run. Cleanup only happens once the upload stage is reached and
// runs whether or not the upload succeeded.
func (w *Workflow) Run(ctx context.Context, req Request) (out Outcome) {
	start := time.Now()
	log := w.logger.With().Str("source", req.SourcePath).Logger()

	out.Bucket = w.bucket
	defer func() {
		out.Duration = time.Since(start)
	}()

	log.Info().Bool("remove_source", req.RemoveSource).Msg("starting transfer")

	artifact, err := w.archiver.Compress(ctx, req.SourcePath, req.ArchiveName)
	if err != nil {
		out.Stage = StageCompress
		out.Err = &StageError{Stage: StageCompress, Err: err}
		log.Error().Err(err).Msg("compress failed")

		reason := ReasonCompress
		if errors.Is(err, archive.ErrNotFound) {
			reason = ReasonNotFound
		}
		w.notifyFailure(ctx, reason, out.Err)
		return out
	}

	out.ArchivePath = artifact.Path
	out.Key = storage.KeyFor(artifact.Path, req.KeyName)

	if req.RemoveSource {
		defer func() {
			if err := w.cleanup(log, req.SourcePath); err != nil && out.Err == nil {
				log.Warn().Msg("success notification was already sent before source removal failed")
				out.Stage = StageCleanup
				out.Err = &StageError{Stage: StageCleanup, Err: err}
			}
		}()
	}

	if w.client == nil {
		err := w.initErr
		if !errors.Is(err, ErrClientInit) {
			err = fmt.Errorf("%w: %w", ErrClientInit, err)
		}
		out.Stage = StageClientInit
		out.Err = &StageError{Stage: StageClientInit, Err: err}
		log.Error().Err(err).Str("archive", artifact.Path).Msg("no storage client, skipping upload")
		w.notifyFailure(ctx, ReasonClientInit, out.Err)
		return out
	}

	result := w.uploader.Upload(ctx, w.client, artifact.Path, out.Key)
	if result.Error != nil {
		out.Stage = StageUpload
		out.Err = &StageError{Stage: StageUpload, Err: fmt.Errorf("%w: %w", ErrUpload, result.Error)}
		log.Error().Err(result.Error).Str("archive", artifact.Path).Msg("upload failed")
		w.notifyFailure(ctx, ReasonUpload, out.Err)
		return out
	}

	log.Info().
		Str("archive", artifact.Path).
		Str("bucket", out.Bucket).
		Str("key", out.Key).
		Dur("upload_duration", result.Duration).
		Msg("transfer completed")
	body := notify.SuccessBody(artifact.Path, out.Bucket, out.Key)
	if req.RemoveSource {
		body += notify.PendingRemovalNote(req.SourcePath)
	}
	w.notify(ctx, notify.StatusSuccess, ReasonSuccess, body)

	return out
}

func (w *Workflow) cleanup(log zerolog.Logger, sourcePath string) error {
	if err := w.remove(sourcePath); err != nil {
		log.Error().Err(err).Msg("failed to remove source")
		return fmt.Errorf("%w: %w", ErrCleanup, err)
	}
	log.Info().Msg("removed source")
	return nil
}

func (w *Workflow) notifyFailure(ctx context.Context, reason string, err error) {
	w.notify(ctx, notify.StatusFailed, reason, notify.FailureBody(err))
}

// notify never fails the run
func (w *Workflow) notify(ctx context.Context, status notify.Status, reason, body string) {
	subject := notify.Subject(status, w.hostname, w.now(), reason)
	if err := w.notifier.Send(ctx, subject, body); err != nil {
		w.logger.Warn().Err(err).Str("subject", subject).Msg("failed to send notification")
	}
}
