package signatures

// api_types.go defines the request/response bodies of the signature session
// API.

import (
	"encoding/json"
	"time"

	"github.com/inkwell-health/signature-relay/internal/crypto"
	"github.com/inkwell-health/signature-relay/internal/session"
)

// CreateSessionRequest is the body of POST /signatures/sessions.
//
// OwnerPublicKey is the owner's P-256 public key as a JWK. The owner keeps
// the private half locally - losing it means losing the ability to read the
// eventual signature.
type CreateSessionRequest struct {
	OwnerPublicKey json.RawMessage `json:"ownerPublicKey"`
	Instructions   string          `json:"instructions"`
	SignerName     string          `json:"signerName,omitempty"`
	TTLMinutes     int             `json:"ttlMinutes,omitempty"`
}

// CreateSessionResponse is returned with 201 when a session is created.
type CreateSessionResponse struct {
	SessionID string    `json:"sessionId"`
	SignURL   string    `json:"signUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionInfoResponse is returned by GET /signatures/sessions/{id}/info.
//
// It contains only what the signer's client needs: the owner's public key
// and the display text. It never includes a prior submission.
type SessionInfoResponse struct {
	PublicKeyJWK json.RawMessage `json:"publicKeyJwk"`
	Instructions string          `json:"instructions"`
	SignerName   string          `json:"signerName,omitempty"`
}

// PollResponse is returned by GET /signatures/sessions/{id}/poll.
//
// EncryptedPayload and AuditLog are only present when Status is completed.
type PollResponse struct {
	Status           session.Status       `json:"status"`
	EncryptedPayload *crypto.Envelope     `json:"encryptedPayload,omitempty"`
	AuditLog         []session.AuditEntry `json:"auditLog,omitempty"`
}

// SubmitResponse is returned with 200 when a submission is accepted.
type SubmitResponse struct {
	Status session.Status `json:"status"`
}
