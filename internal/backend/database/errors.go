package database

import (
	"errors"
	"fmt"
)

// ErrDuplicateURL is returned when a URL has already been saved.
var ErrDuplicateURL = errors.New("image url has already been saved")

// StorageError wraps any failure of the underlying storage engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
