package entity

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Stable error codes exposed in the response envelope.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodePlatform   = "PLATFORM_ERROR"
	CodeTimeout    = "TIMEOUT_ERROR"
	CodeRateLimit  = "RATE_LIMIT_ERROR"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_ERROR"
)

// AppError is the typed failure every layer raises. Retryable marks
// transient failures (network, remote 5xx, remote 429).
type AppError struct {
	Code      string
	Message   string
	Details   string
	Status    int // remote HTTP status when one exists, 0 otherwise
	Raw       []byte
	Retryable bool
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewTimeoutError(message string) *AppError {
	return &AppError{Code: CodeTimeout, Message: message}
}

// NewPlatformError maps a remote HTTP status to the error taxonomy:
// 401/403 are auth failures, 429 is a retryable rate limit, 5xx is a
// retryable platform failure, everything else is terminal.
func NewPlatformError(status int, message string, raw []byte) *AppError {
	appErr := &AppError{Message: message, Status: status, Raw: raw}
	switch {
	case status == 401 || status == 403:
		appErr.Code = CodeAuth
	case status == 429:
		appErr.Code = CodeRateLimit
		appErr.Retryable = true
	case status >= 500:
		appErr.Code = CodePlatform
		appErr.Retryable = true
	default:
		appErr.Code = CodePlatform
	}
	return appErr
}

// NewNetworkError wraps a transport-level failure; always retryable.
func NewNetworkError(err error) *AppError {
	return &AppError{Code: CodePlatform, Message: err.Error(), Retryable: true}
}

// IsRetryable reports whether an error is worth another attempt: a
// network-class failure, a remote 5xx, or a remote 429.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify wraps any error into an AppError, leaving existing ones intact.
func Classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: CodeInternal, Message: "request cancelled"}
	}
	return &AppError{Code: CodeInternal, Message: err.Error()}
}
