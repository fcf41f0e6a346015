package signatures

// responses.go provides helper functions for sending HTTP responses from the
// signature session API handlers.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/inkwell-health/signature-relay/internal/logger"
)

// RespondWithErrorResponse sends a JSON error response.
//
// It logs the full error details server-side and sends the mapped response to
// the client.
func RespondWithErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse := MapErrorToResponse(err, r)

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Warn("Request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", errorResponse.StatusCode),
		slog.String("error_code", errorResponse.ErrorCode),
		slog.String("request_id", errorResponse.RequestID),
	)

	RespondWithJSONPayload(w, errorResponse.StatusCode, errorResponse)
}

// RespondWithJSONPayload sends a JSON response with the given status code
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// If encoding fails, log it but don't try to send another
			// response (headers are already written)
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}
