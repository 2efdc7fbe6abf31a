package record

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for commits rejected before anything is written.
var ErrInvalidInput = errors.New("invalid input")

// StorageError reports a failure creating or writing the recording.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string { return fmt.Sprintf("write recording %s: %v", e.Path, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
