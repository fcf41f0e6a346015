// Package handlers implements the HTTP surface of the signature session API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-health/signature-relay/internal/config"
	"github.com/inkwell-health/signature-relay/internal/crypto"
	"github.com/inkwell-health/signature-relay/internal/logger"
	"github.com/inkwell-health/signature-relay/internal/session"
	"github.com/inkwell-health/signature-relay/internal/signatures"
)

// SessionsHandler handles the signature session endpoints
type SessionsHandler struct {
	store *session.Store
	cfg   *config.RelayEnvironment
}

// NewSessionsHandler creates a new handler for the signature session API
func NewSessionsHandler(store *session.Store, cfg *config.RelayEnvironment) *SessionsHandler {
	return &SessionsHandler{
		store: store,
		cfg:   cfg,
	}
}

// HandleCreateSession godoc
//
//	@Summary		Create signature session
//	@Description	Use this endpoint to create a new signature session.
//	@Description
//	@Description	The owner supplies their P-256 public key (as a JWK) and the
//	@Description	instructions to display to the signer. The private key stays with
//	@Description	the owner - the relay never receives it and cannot decrypt the
//	@Description	eventual submission.
//	@Description
//	@Description	The response includes the session id, the URL to share with the
//	@Description	signer, and the expiry time.
//
//	@Tags			Signatures
//
//	@Param			request	body		signatures.CreateSessionRequest	true	"Owner public key, instructions, optional signer name and TTL"
//
//	@Success		201		{object}	signatures.CreateSessionResponse	"Session created"
//	@Failure		400		{object}	signatures.ErrorResponse			"Missing or invalid fields"
//
//	@Router			/signatures/sessions [post]
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	var req signatures.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reqLogger.Warn("Failed to decode create request", slog.String("error", err.Error()))
		signatures.RespondWithErrorResponse(w, r, signatures.WrapMalformedRequestError(err, "failed to decode request JSON"))
		return
	}
	defer r.Body.Close()

	if len(req.OwnerPublicKey) == 0 {
		signatures.RespondWithErrorResponse(w, r, session.NewValidationError("ownerPublicKey is required"))
		return
	}
	if req.Instructions == "" {
		signatures.RespondWithErrorResponse(w, r, session.NewValidationError("instructions is required"))
		return
	}

	// the key must at least be a usable P-256 JWK or the signer's client
	// will fail the handshake later
	if _, err := crypto.ParsePublicKeyJWK(req.OwnerPublicKey); err != nil {
		reqLogger.Warn("Rejected owner public key", slog.String("error", err.Error()))
		signatures.RespondWithErrorResponse(w, r, err)
		return
	}

	view, err := h.store.Create(session.CreateParams{
		OwnerPublicKey: req.OwnerPublicKey,
		Instructions:   req.Instructions,
		SignerName:     req.SignerName,
		TTL:            time.Duration(req.TTLMinutes) * time.Minute,
		Meta:           requestMeta(r),
	})
	if err != nil {
		signatures.RespondWithErrorResponse(w, r, err)
		return
	}

	logger.ContextWithLogAttrs(r.Context(),
		slog.String("session_id", view.ID))

	response := &signatures.CreateSessionResponse{
		SessionID: view.ID,
		SignURL:   h.signURL(view.ID),
		ExpiresAt: view.ExpiresAt,
	}

	signatures.RespondWithJSONPayload(w, http.StatusCreated, response)
}

// HandleGetInfo godoc
//
//	@Summary		Get session info
//	@Description	Returns what the signer's client needs to render the signing page:
//	@Description	the owner's public key, the instructions, and the signer name.
//	@Description
//	@Description	The response never contains the owner's private material (which the
//	@Description	relay does not have) nor any prior submission.
//
//	@Tags			Signatures
//
//	@Param			sessionID	path		string	true	"Session id"
//
//	@Success		200	{object}	signatures.SessionInfoResponse	"Session info"
//	@Failure		404	{object}	signatures.ErrorResponse		"Unknown session"
//	@Failure		409	{object}	signatures.ErrorResponse		"Session already completed"
//	@Failure		410	{object}	signatures.ErrorResponse		"Session expired"
//
//	@Router			/signatures/sessions/{sessionID}/info [get]
func (h *SessionsHandler) HandleGetInfo(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	view, err := h.store.Get(sessionID)
	if err != nil {
		signatures.RespondWithErrorResponse(w, r, err)
		return
	}

	switch view.Status {
	case session.StatusExpired:
		signatures.RespondWithErrorResponse(w, r, session.NewExpiredError(sessionID))
		return
	case session.StatusCompleted:
		signatures.RespondWithErrorResponse(w, r, session.NewAlreadyCompletedError(sessionID))
		return
	}

	response := &signatures.SessionInfoResponse{
		PublicKeyJWK: view.OwnerPublicKey,
		Instructions: view.Instructions,
		SignerName:   view.SignerName,
	}

	signatures.RespondWithJSONPayload(w, http.StatusOK, response)
}

// HandlePoll godoc
//
//	@Summary		Poll for session completion
//	@Description	Long-poll endpoint for the owner. If the session is still waiting,
//	@Description	the request blocks until the session completes, expires, or the
//	@Description	timeout elapses.
//	@Description
//	@Description	The timeout query parameter is in seconds and is clamped to the
//	@Description	server maximum (default 60s). When the session is completed the
//	@Description	response contains the encrypted payload and the audit log.
//
//	@Tags			Signatures
//
//	@Param			sessionID	path	string	true	"Session id"
//	@Param			timeout		query	int		false	"Poll timeout in seconds"
//
//	@Success		200	{object}	signatures.PollResponse		"Current session state"
//	@Failure		400	{object}	signatures.ErrorResponse	"Invalid timeout value"
//	@Failure		404	{object}	signatures.ErrorResponse	"Unknown session"
//
//	@Router			/signatures/sessions/{sessionID}/poll [get]
func (h *SessionsHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	timeout, err := h.pollTimeout(r)
	if err != nil {
		signatures.RespondWithErrorResponse(w, r, err)
		return
	}

	view, err := h.store.Poll(r.Context(), sessionID, timeout)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// client disconnected mid-poll; nothing left to write
			reqLogger.Debug("poll abandoned by client",
				slog.String("session_id", sessionID))
			return
		}
		signatures.RespondWithErrorResponse(w, r, err)
		return
	}

	response := &signatures.PollResponse{
		Status: view.Status,
	}
	if view.Status == session.StatusCompleted {
		response.EncryptedPayload = view.EncryptedPayload
		response.AuditLog = view.AuditLog
	}

	signatures.RespondWithJSONPayload(w, http.StatusOK, response)
}

// HandleSubmit godoc
//
//	@Summary		Submit encrypted signature
//	@Description	Accepts the signer's encrypted submission for a waiting session.
//	@Description
//	@Description	The body is the envelope produced by the signer's client:
//	@Description	ciphertext, IV, and the signer's single-use ephemeral public key.
//	@Description	The relay stores it opaquely - it cannot decrypt the payload.
//	@Description
//	@Description	A session accepts exactly one submission; repeated submissions are
//	@Description	rejected with 409.
//
//	@Tags			Signatures
//
//	@Param			sessionID	path		string			true	"Session id"
//	@Param			request		body		crypto.Envelope	true	"Encrypted envelope"
//
//	@Success		200	{object}	signatures.SubmitResponse	"Submission accepted"
//	@Failure		400	{object}	signatures.ErrorResponse	"Missing or invalid envelope fields"
//	@Failure		404	{object}	signatures.ErrorResponse	"Unknown session"
//	@Failure		409	{object}	signatures.ErrorResponse	"Session already completed"
//	@Failure		410	{object}	signatures.ErrorResponse	"Session expired"
//
//	@Router			/signatures/sessions/{sessionID}/submit [post]
func (h *SessionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var envelope crypto.Envelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		reqLogger.Warn("Failed to decode envelope", slog.String("error", err.Error()))
		signatures.RespondWithErrorResponse(w, r, signatures.WrapMalformedRequestError(err, "failed to decode envelope JSON"))
		return
	}
	defer r.Body.Close()

	if err := envelope.Validate(); err != nil {
		reqLogger.Warn("Rejected envelope", slog.String("error", err.Error()))
		signatures.RespondWithErrorResponse(w, r, err)
		return
	}

	view, err := h.store.Submit(sessionID, &envelope, requestMeta(r))
	if err != nil {
		signatures.RespondWithErrorResponse(w, r, err)
		return
	}

	logger.ContextWithLogAttrs(r.Context(),
		slog.String("session_id", view.ID))

	signatures.RespondWithJSONPayload(w, http.StatusOK, &signatures.SubmitResponse{
		Status: view.Status,
	})
}

// pollTimeout resolves the timeout query parameter: absent means the server
// default, anything else is parsed and clamped to [1s, PollMaxTimeout].
func (h *SessionsHandler) pollTimeout(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("timeout")
	if raw == "" {
		return h.cfg.PollDefaultTimeout, nil
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, session.WrapValidationError(err, "timeout must be an integer number of seconds")
	}

	timeout := time.Duration(seconds) * time.Second
	if timeout < time.Second {
		timeout = time.Second
	}
	if timeout > h.cfg.PollMaxTimeout {
		timeout = h.cfg.PollMaxTimeout
	}

	return timeout, nil
}

// signURL builds the share-able URL the signer opens to draw their signature.
func (h *SessionsHandler) signURL(sessionID string) string {
	return strings.TrimSuffix(h.cfg.PublicBaseURL, "/") + "/sign/" + sessionID
}

// requestMeta extracts the caller's network address and client identifier for
// the audit log. RemoteAddr is already resolved by the RealIP middleware.
func requestMeta(r *http.Request) session.RequestMeta {
	return session.RequestMeta{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}
