package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrTransient      = errors.New("backend unavailable")
	ErrPartialFailure = errors.New("partially completed")
)

// AppError carries a user-facing message next to the sentinel it belongs to.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(format string, args ...interface{}) error {
	return New(http.StatusBadRequest, fmt.Sprintf(format, args...), ErrValidation)
}

func NotFound(kind, id string) error {
	return New(http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id), ErrNotFound)
}

func Unauthorized(message string) error {
	return New(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) error {
	return New(http.StatusForbidden, message, ErrForbidden)
}

// Transient wraps a failed call to a backend. Nothing in the service retries
// these; the caller re-invokes the action.
func Transient(op string, err error) error {
	return New(http.StatusServiceUnavailable, fmt.Sprintf("%s failed: %v", op, err), errors.Join(ErrTransient, err))
}

// PartialError reports a workflow whose primary write committed but a
// secondary step did not.
type PartialError struct {
	Message string
	Cause   error
}

func (e *PartialError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *PartialError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Cause}
}

func Partial(message string, cause error) error {
	return &PartialError{Message: message, Cause: cause}
}

func IsPartial(err error) bool {
	return errors.Is(err, ErrPartialFailure)
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	if errors.Is(err, ErrPartialFailure) {
		return http.StatusOK
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrTransient) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message returns the text meant for direct display next to the control that
// triggered the action.
func Message(err error) string {
	var pe *PartialError
	if errors.As(err, &pe) {
		return pe.Message
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}
