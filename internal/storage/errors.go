package storage

import "fmt"

// StorageError wraps an I/O failure in the persistence layer. The store never
// retries internally; callers decide whether the triggering operation matters.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
