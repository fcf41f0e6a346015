package signatures

// errors.go defines the error codes used at the HTTP boundary of the
// signature session API. Domain errors (session, crypto) carry their own
// codes and are translated in error_response.go.

import "fmt"

// RelayError represents a structured error from the signatures package.
type RelayError struct {
	// code is the relay error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *RelayError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *RelayError) Code() ErrorCode { return e.code }
func (e *RelayError) Unwrap() error   { return e.wrapped }

// ErrorCode classifies errors raised at the HTTP boundary
type ErrorCode string

const (
	// ErrCodeMalformedRequest is used when JSON parsing or encoding fails
	ErrCodeMalformedRequest ErrorCode = "malformed_request"

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"

	// ErrCodeRequestTooLarge is used when the request body is too large
	// - this is only used in the middleware
	ErrCodeRequestTooLarge ErrorCode = "request_too_large"

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = "internal_error"
)

// NewMalformedRequestError creates an error for malformed requests.
//
// The returned error will have code ErrCodeMalformedRequest.
func NewMalformedRequestError(msg string) error {
	return &RelayError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
//
// The returned error will have code ErrCodeMalformedRequest.
func WrapMalformedRequestError(err error, msg string) error {
	return &RelayError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
// Use this when the client has exceeded the rate limit.
//
// The returned error will have code ErrCodeRateLimitExceeded.
func NewRateLimitError(msg string) error {
	return &RelayError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
// Use this when the request body exceeds the maximum allowed size.
//
// The returned error will have code ErrCodeRequestTooLarge.
func NewRequestTooLargeError(msg string) error {
	return &RelayError{code: ErrCodeRequestTooLarge, message: msg}
}

// NewInternalError creates an internal error for unexpected failures.
//
// The returned error will have code ErrCodeInternalError.
func NewInternalError(msg string) error {
	return &RelayError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
//
// The returned error will have code ErrCodeInternalError.
func WrapInternalError(err error, msg string) error {
	return &RelayError{code: ErrCodeInternalError, message: msg, wrapped: err}
}
