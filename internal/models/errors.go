package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies application errors so handlers can map them to
// HTTP statuses without inspecting message text.
type ErrorKind string

const (
	ErrKindValidation   ErrorKind = "validation"
	ErrKindNotFound     ErrorKind = "not_found"
	ErrKindConflict     ErrorKind = "conflict"
	ErrKindForbidden    ErrorKind = "forbidden"
	ErrKindBusinessRule ErrorKind = "business_rule"
	ErrKindInternal     ErrorKind = "internal"
)

// AppError is a typed error carrying a stable kind and human-readable detail.
// Infrastructure errors are never wrapped into an AppError with their raw
// text; handlers log them and report a generic internal kind instead.
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Details []string  `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to an HTTP status code
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case ErrKindValidation:
		return http.StatusBadRequest
	case ErrKindNotFound:
		return http.StatusNotFound
	case ErrKindConflict:
		return http.StatusConflict
	case ErrKindForbidden:
		return http.StatusForbidden
	case ErrKindBusinessRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation AppError
func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a not-found AppError
func NewNotFoundError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError creates a conflict AppError with the contested items
func NewConflictError(message string, details ...string) *AppError {
	return &AppError{Kind: ErrKindConflict, Message: message, Details: details}
}

// NewForbiddenError creates a forbidden AppError
func NewForbiddenError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NewBusinessRuleError creates a business-rule AppError
func NewBusinessRuleError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

// AsAppError extracts an *AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
