// Package errors defines the operational error type shared by services and
// the HTTP layer. Services raise ServiceErrors; the HTTP layer translates
// them into structured responses using Code and HTTPStatus.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	CodeForbidden            ErrorCode = "FORBIDDEN"
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeConflict             ErrorCode = "CONFLICT"
	CodeFeatureDisabled      ErrorCode = "FEATURE_DISABLED"
	CodeServiceNotRegistered ErrorCode = "SERVICE_NOT_REGISTERED"
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// ServiceError carries an error class, a user-facing message and the HTTP
// status the API layer should respond with.
type ServiceError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a key/value pair and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, message string, status int, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// Validation reports malformed or missing input.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, message, http.StatusBadRequest, nil)
}

// Unauthorized reports a request lacking a valid identity.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "authentication required"
	}
	return newError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// InvalidToken reports a session token that failed validation.
func InvalidToken(cause error) *ServiceError {
	return newError(CodeInvalidToken, "invalid or expired token", http.StatusUnauthorized, cause)
}

// Forbidden reports an authenticated identity lacking a required role.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "insufficient permissions"
	}
	return newError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NotFound reports a missing resource.
func NotFound(resource string) *ServiceError {
	return newError(CodeNotFound, resource+" not found", http.StatusNotFound, nil)
}

// Conflict reports a uniqueness or state conflict.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, message, http.StatusConflict, nil)
}

// FeatureDisabled reports access to a feature the flag evaluator denied.
func FeatureDisabled(key string) *ServiceError {
	return newError(CodeFeatureDisabled, fmt.Sprintf("feature %q is not enabled", key), http.StatusForbidden, nil)
}

// ServiceNotRegistered reports a container resolve on an unknown token.
// This is a programming error, not a user-facing condition.
func ServiceNotRegistered(token string) *ServiceError {
	return newError(CodeServiceNotRegistered, fmt.Sprintf("service not registered: %s", token), http.StatusInternalServerError, nil)
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *ServiceError {
	return newError(CodeInternal, message, http.StatusInternalServerError, cause)
}

// GetServiceError extracts a *ServiceError from err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	svcErr := GetServiceError(err)
	return svcErr != nil && svcErr.Code == code
}
