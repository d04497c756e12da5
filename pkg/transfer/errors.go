package transfer

import (
	"errors"
	"fmt"

	"github.com/williamokano/s3transfer/pkg/storage"
)

var (
	// ErrClientInit is returned when the run reaches the upload stage without a storage client
	ErrClientInit = storage.ErrClientInit
	// ErrUpload wraps every error returned by the storage client during upload
	ErrUpload = errors.New("upload failed")
	// ErrCleanup is returned when the source could not be removed after a successful upload
	ErrCleanup = errors.New("source cleanup failed")
)

// Stage identifies the pipeline stage a run failed in
type Stage int

const (
	StageNone Stage = iota
	StageCompress
	StageClientInit
	StageUpload
	StageCleanup
)

func (s Stage) String() string {
	switch s {
	case StageCompress:
		return "compress"
	case StageClientInit:
		return "client_init"
	case StageUpload:
		return "upload"
	case StageCleanup:
		return "cleanup"
	default:
		return "none"
	}
}

// StageError ties a failure to the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
