package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFile      = errors.New("file does not exist")
	ErrEmptyFile        = errors.New("file is empty")
	ErrMalformedContent = errors.New("malformed content")
	ErrNoUsableData     = errors.New("no valid data found in the selected files")
)

// FileError records why one input file was skipped.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Silent reports whether the skip is expected and not worth surfacing.
func (e *FileError) Silent() bool {
	return errors.Is(e.Err, ErrEmptyFile)
}
