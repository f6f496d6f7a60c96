package session

import (
	"errors"
	"fmt"

	"github.com/doclama/doclama/internal/index"
)

// InvalidArgumentError indicates a caller-supplied value is unusable.
type InvalidArgumentError struct {
	Field   string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Message)
}

// BackendError wraps a failure from a collaborator that has no typed
// error of its own.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewInvalidArgumentError creates an invalid-argument error.
func NewInvalidArgumentError(field, message string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Message: message}
}

// NewBackendError wraps an untyped collaborator failure.
func NewBackendError(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}

// IsInvalidArgument checks if an error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var invalidErr *InvalidArgumentError
	return errors.As(err, &invalidErr)
}

// IsBackend checks if an error is a BackendError.
func IsBackend(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}

// IsNotFound reports whether err carries the index not-found kind.
func IsNotFound(err error) bool {
	return index.IsNotFound(err)
}

// IsAccess reports whether err carries the index access kind.
func IsAccess(err error) bool {
	return index.IsAccess(err)
}
