package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/s3transfer/pkg/archive"
	notifymocks "github.com/williamokano/s3transfer/pkg/notify/mocks"
	"github.com/williamokano/s3transfer/pkg/storage"
	"github.com/williamokano/s3transfer/pkg/storage/mocks"
)

var runDate = time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)

// newSource creates <tmp>/data/report with one file and returns the report path
func newSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "data", "report")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("quarterly numbers"), 0o644))
	return src
}

func newClient(t *testing.T) *mocks.MockClient {
	client := mocks.NewMockClient(t)
	client.On("Type").Return("s3").Maybe()
	client.On("Bucket").Return("backups").Maybe()
	return client
}

func clientFactory(client storage.Client, err error) ClientFactory {
	return func(ctx context.Context, cfg storage.Config) (storage.Client, error) {
		return client, err
	}
}

func newWorkflow(factory ClientFactory, notifier *notifymocks.MockNotifier, removeSource *bool) *Workflow {
	opts := Options{
		Storage:       storage.Config{Type: "s3", Bucket: "backups"},
		RemoveSource:  removeSource,
		Logger:        zerolog.Nop(),
		Hostname:      "host01",
		Now:           func() time.Time { return runDate },
		ClientFactory: factory,
	}
	if notifier != nil {
		opts.Notifier = notifier
	}
	return New(context.Background(), opts)
}

func boolPtr(b bool) *bool { return &b }

func TestRun_SilentSuccessRemovesSource(t *testing.T) {
	src := newSource(t)
	client := newClient(t)
	client.On("Upload", mock.Anything, src+".tar.gz", "report.tar.gz").Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), nil, nil)
	require.True(t, w.RemoveSource(), "silent workflow removes the source by default")

	archivePath, err := w.Transfer(context.Background(), src, "", "")
	require.NoError(t, err)

	assert.Equal(t, src+".tar.gz", archivePath)
	assert.NoDirExists(t, src)
	assert.FileExists(t, archivePath)
}

func TestRun_ExplicitKeyAndArchiveName(t *testing.T) {
	src := newSource(t)
	client := newClient(t)
	client.On("Upload", mock.Anything, filepath.Join(filepath.Dir(src), "custom.tar.gz"), "2026/report.tar.gz").Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), nil, boolPtr(false))

	out := w.Run(context.Background(), Request{
		SourcePath:  src,
		ArchiveName: "custom.tar.gz",
		KeyName:     "2026/report.tar.gz",
	})
	require.True(t, out.Success())
	assert.Equal(t, StageNone, out.Stage)
	assert.Equal(t, "backups", out.Bucket)
	assert.Equal(t, "2026/report.tar.gz", out.Key)
	assert.DirExists(t, src)
}

func TestRun_UploadFailureStillRemovesSource(t *testing.T) {
	src := newSource(t)
	uploadErr := errors.New("access denied")
	client := newClient(t)
	client.On("Upload", mock.Anything, src+".tar.gz", "report.tar.gz").Return(uploadErr).Once()

	w := newWorkflow(clientFactory(client, nil), nil, boolPtr(true))

	out := w.Run(context.Background(), Request{SourcePath: src, RemoveSource: true})
	require.Error(t, out.Err)

	assert.Equal(t, StageUpload, out.Stage)
	assert.True(t, errors.Is(out.Err, ErrUpload))
	assert.True(t, errors.Is(out.Err, uploadErr))
	assert.NoDirExists(t, src)
	assert.FileExists(t, src+".tar.gz")

	var stageErr *StageError
	require.True(t, errors.As(out.Err, &stageErr))
	assert.Equal(t, StageUpload, stageErr.Stage)
}

func TestRun_MissingSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "missing")
	// no Upload expectation: any call fails the test
	client := newClient(t)
	notifier := notifymocks.NewMockNotifier(t)
	notifier.On("Send", mock.Anything,
		"[FAILED][host01] 2026/10/17 Transfer S3 - file not found",
		mock.MatchedBy(func(body string) bool { return strings.HasPrefix(body, "Transfer S3 failed.") }),
	).Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), notifier, boolPtr(true))

	archivePath, err := w.Transfer(context.Background(), src, "", "")
	require.Error(t, err)

	assert.True(t, errors.Is(err, archive.ErrNotFound))
	assert.Empty(t, archivePath)
	assert.NoFileExists(t, src+".tar.gz")
	client.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_CompressFailureSkipsCleanup(t *testing.T) {
	src := newSource(t)
	client := newClient(t)
	notifier := notifymocks.NewMockNotifier(t)
	notifier.On("Send", mock.Anything, "[FAILED][host01] 2026/10/17 Transfer S3 - failed compress to tar", mock.Anything).Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), notifier, boolPtr(true))

	// the archive's parent directory does not exist
	out := w.Run(context.Background(), Request{
		SourcePath:   src,
		ArchiveName:  filepath.Join(t.TempDir(), "nope", "report.tar.gz"),
		RemoveSource: true,
	})
	require.Error(t, out.Err)
	assert.Equal(t, StageCompress, out.Stage)
	assert.True(t, errors.Is(out.Err, archive.ErrArchive))
	assert.DirExists(t, src)
}

func TestRun_ClientInitFailure(t *testing.T) {
	src := newSource(t)
	initErr := errors.New("no credentials")
	notifier := notifymocks.NewMockNotifier(t)
	notifier.On("Send", mock.Anything, "[FAILED][host01] 2026/10/17 Transfer S3 - can't initialize storage client", mock.Anything).Return(nil).Once()

	w := newWorkflow(clientFactory(nil, initErr), notifier, boolPtr(true))

	out := w.Run(context.Background(), Request{SourcePath: src, RemoveSource: true})
	require.Error(t, out.Err)

	assert.Equal(t, StageClientInit, out.Stage)
	assert.True(t, errors.Is(out.Err, ErrClientInit))
	assert.True(t, errors.Is(out.Err, initErr))
	assert.Equal(t, src+".tar.gz", out.ArchivePath)
	// cleanup still runs once the upload stage is entered
	assert.NoDirExists(t, src)
	assert.NoError(t, w.Close())
}

func TestRun_NilClientWithoutError(t *testing.T) {
	src := newSource(t)
	w := newWorkflow(clientFactory(nil, nil), nil, boolPtr(false))

	out := w.Run(context.Background(), Request{SourcePath: src})
	require.Error(t, out.Err)
	assert.Equal(t, StageClientInit, out.Stage)
	assert.True(t, errors.Is(out.Err, ErrClientInit))
}

func TestRun_NotifyingSuccess(t *testing.T) {
	src := newSource(t)
	client := newClient(t)
	client.On("Upload", mock.Anything, src+".tar.gz", "report.tar.gz").Return(nil).Once()

	notifier := notifymocks.NewMockNotifier(t)
	notifier.On("Send", mock.Anything,
		"[SUCCESS][host01] 2026/10/17 Transfer S3 - uploaded",
		"Transfer S3 succeeded.\nUploaded: "+src+".tar.gz\nDestination: backups/report.tar.gz",
	).Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), notifier, nil)
	require.False(t, w.RemoveSource(), "notifying workflow keeps the source by default")

	archivePath, err := w.Transfer(context.Background(), src, "", "")
	require.NoError(t, err)
	assert.Equal(t, src+".tar.gz", archivePath)
	assert.DirExists(t, src)
}

func TestRun_NotifyingUploadFailure(t *testing.T) {
	src := newSource(t)
	client := newClient(t)
	client.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(storage.ErrConnFailed).Once()

	notifier := notifymocks.NewMockNotifier(t)
	notifier.On("Send", mock.Anything, "[FAILED][host01] 2026/10/17 Transfer S3 - failed uploading", mock.Anything).Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), notifier, nil)

	_, err := w.Transfer(context.Background(), src, "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpload))
	assert.True(t, errors.Is(err, storage.ErrConnFailed))
	assert.DirExists(t, src)
}

func TestRun_NotifierFailureDoesNotChangeOutcome(t *testing.T) {
	src := newSource(t)
	client := newClient(t)
	client.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	notifier := notifymocks.NewMockNotifier(t)
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	w := newWorkflow(clientFactory(client, nil), notifier, nil)

	out := w.Run(context.Background(), Request{SourcePath: src})
	assert.NoError(t, out.Err)
	assert.True(t, out.Success())
}

func failingRemove(err error) func(string) error {
	return func(string) error { return err }
}

func TestRun_CleanupFailureKeepsUploadError(t *testing.T) {
	src := newSource(t)
	uploadErr := errors.New("access denied")
	client := newClient(t)
	client.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(uploadErr).Once()

	w := newWorkflow(clientFactory(client, nil), nil, boolPtr(true))
	removeErr := errors.New("device busy")
	w.remove = failingRemove(removeErr)

	out := w.Run(context.Background(), Request{SourcePath: src, RemoveSource: true})
	require.Error(t, out.Err)

	assert.Equal(t, StageUpload, out.Stage)
	assert.True(t, errors.Is(out.Err, ErrUpload))
	assert.True(t, errors.Is(out.Err, uploadErr))
	assert.False(t, errors.Is(out.Err, ErrCleanup))
	assert.False(t, errors.Is(out.Err, removeErr))
}

func TestRun_CleanupFailureAfterSuccess(t *testing.T) {
	src := newSource(t)
	client := newClient(t)
	client.On("Upload", mock.Anything, src+".tar.gz", "report.tar.gz").Return(nil).Once()

	notifier := notifymocks.NewMockNotifier(t)
	notifier.On("Send", mock.Anything,
		"[SUCCESS][host01] 2026/10/17 Transfer S3 - uploaded",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Destination: backups/report.tar.gz") &&
				strings.Contains(body, src+" will be removed")
		}),
	).Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), notifier, boolPtr(true))
	removeErr := errors.New("device busy")
	var removed []string
	w.remove = func(path string) error {
		removed = append(removed, path)
		return removeErr
	}

	archivePath, err := w.Transfer(context.Background(), src, "", "")
	require.Error(t, err)

	assert.Equal(t, src+".tar.gz", archivePath)
	assert.True(t, errors.Is(err, ErrCleanup))
	assert.True(t, errors.Is(err, removeErr))
	assert.Equal(t, []string{src}, removed)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageCleanup, stageErr.Stage)
}

func TestClose(t *testing.T) {
	client := newClient(t)
	client.On("Close").Return(nil).Once()

	w := newWorkflow(clientFactory(client, nil), nil, nil)
	assert.NoError(t, w.Close())
}

func TestStageError(t *testing.T) {
	cause := errors.New("boom")
	err := &StageError{Stage: StageUpload, Err: cause}

	assert.Equal(t, "upload stage: boom", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "client_init", StageClientInit.String())
	assert.Equal(t, "none", StageNone.String())
}
