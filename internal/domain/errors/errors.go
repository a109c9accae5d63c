package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError for transports.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeForbidden  ErrorType = "forbidden"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
)

// AppError is the error value returned across package boundaries. The HTTP
// API and the bot both branch on Type; Code is stable and machine readable.
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
	Retryable  bool           `json:"retryable"`
	StatusCode int            `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func newError(t ErrorType, code, message string, status int, retryable bool) *AppError {
	return &AppError{
		Type:       t,
		Code:       code,
		Message:    message,
		Retryable:  retryable,
		StatusCode: status,
	}
}

// NewValidationError reports input that can never succeed as given.
func NewValidationError(code, message string) *AppError {
	return newError(ErrorTypeValidation, code, message, http.StatusBadRequest, false)
}

func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, "RESOURCE_NOT_FOUND", resource+" not found", http.StatusNotFound, false)
}

func NewForbiddenError(message string) *AppError {
	return newError(ErrorTypeForbidden, "FORBIDDEN", message, http.StatusForbidden, false)
}

// NewInternalError reports a failure of our own storage or cache. These are
// retryable: the same call usually succeeds once the dependency recovers.
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError, true)
}

// NewExternalError reports a failure of a collaborator outside the process,
// such as the chat API or the message broker.
func NewExternalError(service, message string) *AppError {
	e := newError(ErrorTypeExternal, "EXTERNAL_SERVICE_ERROR",
		fmt.Sprintf("%s service error: %s", service, message), http.StatusBadGateway, true)
	e.Details = map[string]any{"service": service}
	return e
}

var (
	ErrOrderNotFound = NewNotFoundError("order")
	ErrUserNotFound  = NewNotFoundError("user")
	ErrAlertNotFound = NewNotFoundError("alert")
	ErrNotAdmin      = NewForbiddenError("only administrators can perform this action")
)

// Wrap annotates err with message, keeping it matchable with errors.As.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func as(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsType reports whether err wraps an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr, ok := as(err)
	return ok && appErr.Type == t
}

func IsRetryable(err error) bool {
	appErr, ok := as(err)
	return ok && appErr.Retryable
}

// GetStatusCode maps err to an HTTP status. Errors that are not AppErrors
// are internal.
func GetStatusCode(err error) int {
	if appErr, ok := as(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
