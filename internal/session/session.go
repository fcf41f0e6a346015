// Package session implements the in-memory signature session store, the
// long-poll waiter registry, and the TTL sweeper.
//
// A session is created by the owner with their public key and display
// instructions, completed by exactly one encrypted submission from the
// signer, or expired by the sweeper once its TTL passes. Both target states
// are terminal. The store is memory-only: sessions do not survive a restart.
package session

import (
	"encoding/json"
	"time"

	"github.com/inkwell-health/signature-relay/internal/crypto"
)

// Status is the lifecycle state of a signature session.
//
// The only legal transitions are waiting->completed (submission) and
// waiting->expired (TTL). completed and expired are terminal.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// AuditEvent identifies an entry in a session's audit log.
type AuditEvent string

const (
	AuditCreated   AuditEvent = "created"
	AuditSubmitted AuditEvent = "submitted"
	AuditExpired   AuditEvent = "expired"
)

// AuditEntry is one record in a session's append-only audit log.
//
// EnvelopeChecksum is only set on submitted entries: it is the SHA-256 of the
// canonicalized envelope JSON, letting the owner tie the audit trail to the
// exact ciphertext they decrypted.
type AuditEntry struct {
	Timestamp        time.Time  `json:"timestamp"`
	Event            AuditEvent `json:"event"`
	IP               string     `json:"ip,omitempty"`
	UserAgent        string     `json:"userAgent,omitempty"`
	EnvelopeChecksum string     `json:"envelopeChecksum,omitempty"`
}

// Session is the stored record for one signature session.
//
// All fields are guarded by the store's mutex; handlers never see a *Session
// directly, only View snapshots.
type Session struct {
	ID string

	// OwnerPublicKey is the owner's public key as a raw JWK document.
	// The relay stores it opaquely and serves it to the signer; the
	// matching private key never leaves the owner.
	OwnerPublicKey json.RawMessage

	Instructions string
	SignerName   string

	Status Status

	// EncryptedPayload is set if and only if Status == StatusCompleted,
	// and never mutated once set.
	EncryptedPayload *crypto.Envelope

	CreatedAt time.Time
	ExpiresAt time.Time

	AuditLog []AuditEntry

	// waiters holds the wake channels of in-flight long-poll requests.
	// Non-empty only while Status == StatusWaiting. Each channel has
	// capacity 1 so a broadcast never blocks and waking an abandoned
	// (timed-out) waiter is a no-op.
	waiters []chan View
}

// View is an immutable snapshot of a session, safe to use after the store's
// lock is released.
type View struct {
	ID               string
	Status           Status
	OwnerPublicKey   json.RawMessage
	Instructions     string
	SignerName       string
	EncryptedPayload *crypto.Envelope
	CreatedAt        time.Time
	ExpiresAt        time.Time
	AuditLog         []AuditEntry
}

// RequestMeta carries the caller's network address and client identifier for
// the audit log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// CreateParams are the inputs to Store.Create.
type CreateParams struct {
	OwnerPublicKey json.RawMessage
	Instructions   string
	SignerName     string

	// TTL of 0 means the store default applies.
	TTL time.Duration

	Meta RequestMeta
}

// snapshotLocked copies the session into a View. Caller must hold the store
// lock.
func snapshotLocked(sess *Session) View {
	auditLog := make([]AuditEntry, len(sess.AuditLog))
	copy(auditLog, sess.AuditLog)

	return View{
		ID:               sess.ID,
		Status:           sess.Status,
		OwnerPublicKey:   sess.OwnerPublicKey,
		Instructions:     sess.Instructions,
		SignerName:       sess.SignerName,
		EncryptedPayload: sess.EncryptedPayload,
		CreatedAt:        sess.CreatedAt,
		ExpiresAt:        sess.ExpiresAt,
		AuditLog:         auditLog,
	}
}
