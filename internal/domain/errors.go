package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound means a mutation referenced a block id that has no stored row.
// Board state may hold such stale references harmlessly; callers usually log and move on.
var ErrNotFound = errors.New("block not found")

// ErrWorkerStopped is returned once the viewport worker has exited and its
// response channel is closed. Viewport reloads are disabled from then on.
var ErrWorkerStopped = errors.New("viewport worker stopped")

// StorageError wraps a failure of the backing store for a single operation.
// It is recoverable: the operation is dropped, the process keeps running.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err for op, or returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
