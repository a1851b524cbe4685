// Package apperr defines the typed error kinds shared across the engine.
// Callers branch on kind with errors.As; messages stay user-facing.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports rejected input. Nothing is persisted when one
// is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity, carrying the entity kind and ID.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError creates a not-found error for an entity/ID pair.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a storage-level uniqueness conflict. Identifier
// collisions surface as one of these only after retries are exhausted.
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the nested error for errors.Is and errors.As.
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// NewConflictError creates a conflict error wrapping the storage error.
func NewConflictError(message string, err error) *ConflictError {
	return &ConflictError{Message: message, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
