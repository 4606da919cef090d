package store

import (
	"errors"
	"fmt"

	"github.com/noah-isme/school-records-api/internal/models"
)

var (
	// ErrNotFound is returned when the target id is not in the collection.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert would duplicate an id.
	ErrConflict = errors.New("record already exists")
	// ErrDanglingReference is returned when a restored record points at a
	// student that is no longer active.
	ErrDanglingReference = errors.New("referenced student is not active")
)

// StorageError reports a failed load or save. The in-memory state is left as
// it was before the operation.
type StorageError struct {
	Op    string
	Kinds []models.Kind
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Op, e.Kinds, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
