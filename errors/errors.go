package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status the command bridge answers with.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// InvalidInput creates an input-validation error for field.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// MissingField creates an input-validation error for a required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field},
	}
}

// Validation creates an input-validation error with a prepared message.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ConnectionFailed creates a transport error for operation.
func ConnectionFailed(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("%s: connection failed", operation),
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}

// Timeout creates a transport error for an operation that timed out.
func Timeout(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s: request timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}

// Protocol creates a protocol error. status is the provider's HTTP status,
// or 0 when the failure was reported inside a 2xx body.
func Protocol(operation string, status int, reason string) *AppError {
	msg := fmt.Sprintf("%s failed: %s", operation, reason)
	if status > 0 {
		msg = fmt.Sprintf("%s failed (HTTP %d): %s", operation, status, reason)
	}
	e := &AppError{
		Code: ErrCodeProtocol, Message: msg,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"operation": operation},
	}
	if status > 0 {
		e.Details["status"] = status
	}
	return e
}

// DataIntegrity creates an error for a successful response that is missing
// the fields the caller depends on.
func DataIntegrity(operation, reason string) *AppError {
	return &AppError{
		Code: ErrCodeDataIntegrity, Message: fmt.Sprintf("%s returned incomplete data: %s", operation, reason),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"operation": operation},
	}
}

// Unauthorized creates an error for credentials the provider rejected.
func Unauthorized(operation string) *AppError {
	return &AppError{
		Code: ErrCodeUnauthorized, Message: fmt.Sprintf("%s: credentials rejected", operation),
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotFound creates an error for a missing remote object.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Persistence creates an error for a ledger write that did not reach disk.
func Persistence(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePersistence, Message: fmt.Sprintf("cannot write upload history %s", path),
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
		Details: map[string]any{"path": path},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "unexpected error",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// Message flattens err into the single human-readable line surfaced at the
// command boundary. Causes are appended after a colon.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Message + ": " + Message(appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
