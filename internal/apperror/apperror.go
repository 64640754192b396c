package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the API distinguishes. Handlers
// map these to HTTP statuses; store code wraps them with context.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// AppError pairs a failure class with a message suitable for the response
// body. The frontend surfaces Message directly.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...any) *AppError {
	return &AppError{Err: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *AppError {
	return &AppError{Err: ErrConflict, Message: fmt.Sprintf(format, args...)}
}
