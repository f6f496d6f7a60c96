package index

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a required path or cache artifact is missing.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not found: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// AccessError indicates a path exists but could not be read.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("access denied: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("access denied: %s", e.Path)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a not-found error for a path.
func NewNotFoundError(path string, err error) *NotFoundError {
	return &NotFoundError{Path: path, Err: err}
}

// NewAccessError creates an access error for a path.
func NewAccessError(path string, err error) *AccessError {
	return &AccessError{Path: path, Err: err}
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsAccess checks if an error is an AccessError.
func IsAccess(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr)
}
