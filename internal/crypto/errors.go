package crypto

import "fmt"

// ErrorCode classifies errors from the crypto package
type ErrorCode string

const (
	ErrCodeValidation    ErrorCode = "validation"
	ErrCodeKeyManagement ErrorCode = "key_management"
	ErrCodeDecryption    ErrorCode = "decryption"
	ErrCodeInternal      ErrorCode = "internal"
)

// CryptoError represents a structured error from the crypto package
type CryptoError struct {

	// code is the crypto error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *CryptoError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *CryptoError) Code() ErrorCode { return e.code }
func (e *CryptoError) Unwrap() error   { return e.wrapped }

// NewValidationError creates a validation error for invalid input.
// Use this for errors related to missing required fields, bad format,
// invalid base64 encoding, or a wrong-size IV.
//
// The returned error will have code ErrCodeValidation.
func NewValidationError(msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
// Use this for errors related to missing required fields, bad format,
// invalid base64 encoding, or a wrong-size IV.
//
// The returned error will have code ErrCodeValidation.
func WrapValidationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg, wrapped: err}
}

// NewKeyManagementError creates a key management error.
// Use this for errors related to key generation, key loading, JWK parsing
// failures, or keys on the wrong curve.
//
// The returned error will have code ErrCodeKeyManagement.
func NewKeyManagementError(msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg}
}

// WrapKeyManagementError wraps an existing error as a key management error.
// Use this for errors related to key generation, key loading, JWK parsing
// failures, or keys on the wrong curve.
//
// The returned error will have code ErrCodeKeyManagement.
func WrapKeyManagementError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg, wrapped: err}
}

// NewDecryptionError creates a decryption error.
//
// A GCM authentication failure means the ciphertext was tampered with or the
// derived key does not match - callers must treat this as a hard failure and
// never fall back to an empty result.
//
// The returned error will have code ErrCodeDecryption.
func NewDecryptionError(msg string) error {
	return &CryptoError{code: ErrCodeDecryption, message: msg}
}

// WrapDecryptionError wraps an existing error as a decryption error.
//
// A GCM authentication failure means the ciphertext was tampered with or the
// derived key does not match - callers must treat this as a hard failure and
// never fall back to an empty result.
//
// The returned error will have code ErrCodeDecryption.
func WrapDecryptionError(err error, msg string) error {
	return &CryptoError{code: ErrCodeDecryption, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
// Use this for errors related to crypto library failures, unexpected nil
// values, or system errors that should not normally occur.
//
// The returned error will have code ErrCodeInternal.
func NewInternalError(msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for errors related to crypto library failures, unexpected nil
// values, or system errors that should not normally occur.
//
// The returned error will have code ErrCodeInternal.
func WrapInternalError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg, wrapped: err}
}
