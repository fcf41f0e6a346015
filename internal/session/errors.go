package session

import "fmt"

// ErrorCode classifies errors from the session package
type ErrorCode string

const (
	// ErrCodeNotFound: the session id is unknown (never existed or was
	// pruned by the retention sweep). Permanent - retrying is not useful.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeExpired: the session aged past its TTL while waiting.
	// Terminal.
	ErrCodeExpired ErrorCode = "expired"

	// ErrCodeAlreadyCompleted: the session already holds its one
	// submission. Guards against duplicate or replayed submissions.
	ErrCodeAlreadyCompleted ErrorCode = "already_completed"

	// ErrCodeValidation: missing or malformed input - the caller must fix
	// the request.
	ErrCodeValidation ErrorCode = "validation"
)

// SessionError represents a structured error from the session package
type SessionError struct {

	// code is the session error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *SessionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *SessionError) Code() ErrorCode { return e.code }
func (e *SessionError) Unwrap() error   { return e.wrapped }

// NewNotFoundError creates an unknown-session error.
//
// The returned error will have code ErrCodeNotFound.
func NewNotFoundError(id string) error {
	return &SessionError{code: ErrCodeNotFound, message: fmt.Sprintf("session %s not found", id)}
}

// NewExpiredError creates a session-expired error.
//
// The returned error will have code ErrCodeExpired.
func NewExpiredError(id string) error {
	return &SessionError{code: ErrCodeExpired, message: fmt.Sprintf("session %s has expired", id)}
}

// NewAlreadyCompletedError creates an already-completed error.
//
// The returned error will have code ErrCodeAlreadyCompleted.
func NewAlreadyCompletedError(id string) error {
	return &SessionError{code: ErrCodeAlreadyCompleted, message: fmt.Sprintf("session %s is already completed", id)}
}

// NewValidationError creates a validation error for invalid input.
//
// The returned error will have code ErrCodeValidation.
func NewValidationError(msg string) error {
	return &SessionError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
//
// The returned error will have code ErrCodeValidation.
func WrapValidationError(err error, msg string) error {
	return &SessionError{code: ErrCodeValidation, message: msg, wrapped: err}
}
