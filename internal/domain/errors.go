package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - match with errors.Is()
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrUpstreamStorage = errors.New("object storage failure")
	ErrPersistence     = errors.New("persistence failure")
	ErrConsistency     = errors.New("consistency violation")
)

// Client-facing error types
type (
	// NotFoundError indicates a node, workspace or object was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates missing or malformed input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates the caller is not authenticated
	UnauthorizedError struct {
		Message string
	}

	// AccessDeniedError indicates a visibility or membership rule failed
	AccessDeniedError struct {
		Message string
	}

	// UploadMissingError indicates a confirmed upload never landed in the object store.
	// The referencing node has already been removed when this is returned.
	UploadMissingError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string      { return e.Message }
func (e *ValidationError) Error() string    { return e.Message }
func (e *UnauthorizedError) Error() string  { return e.Message }
func (e *AccessDeniedError) Error() string  { return e.Message }
func (e *UploadMissingError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int    { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int  { return http.StatusUnauthorized }
func (e *AccessDeniedError) StatusCode() int  { return http.StatusForbidden }
func (e *UploadMissingError) StatusCode() int { return http.StatusBadRequest }

func (e *NotFoundError) Is(target error) bool      { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool    { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool  { return target == ErrUnauthorized }
func (e *AccessDeniedError) Is(target error) bool  { return target == ErrForbidden }
func (e *UploadMissingError) Is(target error) bool { return target == ErrNotFound }

// Server-side failures. These wrap the underlying cause so callers can log it,
// but only Op is ever shown to clients.
type (
	// UpstreamStorageError indicates an object-store call failed
	UpstreamStorageError struct {
		Op  string
		Err error
	}

	// PersistenceError indicates a database read or write failed
	PersistenceError struct {
		Op  string
		Err error
	}

	// ConsistencyError indicates stored data violates a structural invariant (e.g. a parent cycle)
	ConsistencyError struct {
		Message string
	}
)

func (e *UpstreamStorageError) Error() string { return e.Op + ": " + errString(e.Err) }
func (e *PersistenceError) Error() string     { return e.Op + ": " + errString(e.Err) }
func (e *ConsistencyError) Error() string     { return e.Message }

func (e *UpstreamStorageError) Unwrap() error { return e.Err }
func (e *PersistenceError) Unwrap() error     { return e.Err }

func (e *UpstreamStorageError) StatusCode() int { return http.StatusInternalServerError }
func (e *PersistenceError) StatusCode() int     { return http.StatusInternalServerError }
func (e *ConsistencyError) StatusCode() int     { return http.StatusInternalServerError }

func (e *UpstreamStorageError) Is(target error) bool { return target == ErrUpstreamStorage }
func (e *PersistenceError) Is(target error) bool     { return target == ErrPersistence }
func (e *ConsistencyError) Is(target error) bool     { return target == ErrConsistency }

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

// NewValidationError is a shorthand for &ValidationError{Message: msg}
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// NewNotFoundError is a shorthand for &NotFoundError{Message: msg}
func NewNotFoundError(msg string) error {
	return &NotFoundError{Message: msg}
}

// NewAccessDenied is a shorthand for &AccessDeniedError{Message: msg}
func NewAccessDenied(msg string) error {
	return &AccessDeniedError{Message: msg}
}
