package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Input validation errors.
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Transport errors (retryable).
const (
	// ErrCodeConnectionFailed indicates the connection failed or was closed abruptly.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Provider errors.
const (
	// ErrCodeProtocol indicates a non-2xx response, or a 2xx response the
	// provider flagged as failed.
	ErrCodeProtocol ErrorCode = "PROTOCOL_ERROR"
	// ErrCodeDataIntegrity indicates a successful response that is missing
	// required fields.
	ErrCodeDataIntegrity ErrorCode = "DATA_INTEGRITY"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnauthorized indicates the provider rejected the credentials.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Local errors.
const (
	// ErrCodePersistence indicates the ledger could not be written.
	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
