package imagery

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrDownload       = errors.New("download failed")
	ErrFileRead       = errors.New("file read failed")
	ErrDecode         = errors.New("image decode failed")
	ErrProvider       = errors.New("provider request failed")
	ErrMissingPayload = errors.New("no base64 data found in response")
	ErrWrite          = errors.New("write failed")
)

// Stage names the pipeline step an image failed in.
type Stage string

const (
	StageDownload Stage = "download"
	StageRead     Stage = "read"
	StageDecode   Stage = "decode"
	StageGenerate Stage = "generate"
	StageUpload   Stage = "upload"
	StagePersist  Stage = "persist"
)

// StageError ties a failure to the image (by its unsanitized name) and stage.
type StageError struct {
	Name  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("image %q: %s: %v", e.Name, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(name string, stage Stage, err error) *StageError {
	return &StageError{Name: name, Stage: stage, Err: err}
}
