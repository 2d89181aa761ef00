package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation references a task id that is
// not in the list.
var ErrNotFound = errors.New("task not found")

// ValidationError reports a required field that is missing or blank.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is invalid", e.Field)
}

// PersistenceError reports a failed write-through to durable storage. The
// in-memory change that triggered the write has already been applied.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %q: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is, or wraps, a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
