// Package apperrors holds the sentinel errors shared by the domain and
// storage layers and the codes the API exposes for them.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrDatabase        = errors.New("database error")
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeValidation      = "VALIDATION_FAILED"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL"

	// Raised by the router and middleware rather than by the domain.
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUnavailable      = "UNAVAILABLE"
)

// ValidationError names the offending input field, if any.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AppError attaches a client-facing message to one of the sentinels.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NotFound(message string) error {
	return &AppError{Code: CodeNotFound, Message: message, Cause: ErrNotFound}
}

func Conflict(message string) error {
	return &AppError{Code: CodeConflict, Message: message, Cause: ErrAlreadyExists}
}

// CodeOf returns the API code for err. Anything that does not wrap a known
// sentinel, database failures included, is reported as CodeInternal.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrAlreadyExists):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// MessageOf returns the message carried by an AppError or ValidationError in
// err's chain, or fallback when there is none.
func MessageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	return fallback
}
