package signatures

// error_response.go maps lower level errors to the JSON error response
// returned to the client.

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell-health/signature-relay/internal/crypto"
	"github.com/inkwell-health/signature-relay/internal/logger"
	"github.com/inkwell-health/signature-relay/internal/session"
)

// ErrorResponse is the JSON error body returned by the signature session API
type ErrorResponse struct {

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// The machine-readable error code
	ErrorCode string `json:"errorCode"`

	// A human-readable description of the error
	Message string `json:"message"`

	// A unique identifier for the HTTP request
	RequestID string `json:"requestId,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`
}

// MapErrorToResponse maps session.SessionError, crypto.CryptoError,
// signatures.RelayError, or generic errors to an error response.
//
// The mapping establishes the HTTP status code for the error taxonomy:
// not-found 404, expired 410, already-completed 409, validation 400.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var sessErr *session.SessionError
	if errors.As(err, &sessErr) {
		return errorResponseFromSession(sessErr, r, requestID)
	}

	var cryptoErr *crypto.CryptoError
	if errors.As(err, &cryptoErr) {
		return errorResponseFromCrypto(cryptoErr, r, requestID)
	}

	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return errorResponseFromRelay(relayErr, r, requestID)
	}

	// fallback - this is not expected - if it happens, return an internal
	// error response and log the unmapped error
	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)

	return newErrorResponse(http.StatusInternalServerError, string(ErrCodeInternalError),
		"An internal error occurred", requestID)
}

func newErrorResponse(statusCode int, errorCode, message, requestID string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode:     statusCode,
		StatusCodeText: http.StatusText(statusCode),
		ErrorCode:      errorCode,
		Message:        message,
		RequestID:      requestID,
		ErrorDateTime:  time.Now().UTC().Format(time.RFC3339),
	}
}

// errorResponseFromSession maps session.SessionError to API error responses
func errorResponseFromSession(err *session.SessionError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int

	switch err.Code() {
	case session.ErrCodeNotFound:
		statusCode = http.StatusNotFound
	case session.ErrCodeExpired:
		statusCode = http.StatusGone
	case session.ErrCodeAlreadyCompleted:
		statusCode = http.StatusConflict
	case session.ErrCodeValidation:
		statusCode = http.StatusBadRequest
	default:
		statusCode = http.StatusInternalServerError
	}

	return newErrorResponse(statusCode, string(err.Code()), err.Error(), requestID)
}

// errorResponseFromCrypto maps crypto.CryptoError to API error responses
//
// decryption errors never originate on the relay (decryption is owner-side
// only) so anything other than validation or key management maps to an
// internal error.
func errorResponseFromCrypto(err *crypto.CryptoError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int

	switch err.Code() {
	case crypto.ErrCodeValidation, crypto.ErrCodeKeyManagement:
		statusCode = http.StatusBadRequest
	default:
		statusCode = http.StatusInternalServerError
	}

	return newErrorResponse(statusCode, string(err.Code()), err.Error(), requestID)
}

// errorResponseFromRelay maps RelayError to API error responses
func errorResponseFromRelay(err *RelayError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int

	switch err.Code() {
	case ErrCodeMalformedRequest:
		statusCode = http.StatusBadRequest
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
	default:
		statusCode = http.StatusInternalServerError
	}

	return newErrorResponse(statusCode, string(err.Code()), err.Error(), requestID)
}
