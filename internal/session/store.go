package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-health/signature-relay/internal/crypto"
)

// Store owns the session map. It is the only shared mutable state in the
// relay: one mutex guards all records, and the three mutations (create,
// complete, expire) are each a single critical section so a poller can never
// observe a completed session without its payload.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	defaultTTL time.Duration
	retention  time.Duration

	logger *slog.Logger

	// now is swapped out in tests to drive expiry deterministically
	now func() time.Time
}

// NewStore creates a session store.
//
// defaultTTL applies to sessions created without an explicit TTL; retention
// is how long a record is kept past its ExpiresAt before the sweeper deletes
// it (regardless of terminal status).
func NewStore(defaultTTL, retention time.Duration, logger *slog.Logger) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		defaultTTL: defaultTTL,
		retention:  retention,
		logger:     logger,
		now:        time.Now,
	}
}

// Create allocates a session id, stores the record, and appends the created
// audit entry.
func (s *Store) Create(params CreateParams) (View, error) {
	if len(params.OwnerPublicKey) == 0 {
		return View{}, NewValidationError("ownerPublicKey is required")
	}
	if params.Instructions == "" {
		return View{}, NewValidationError("instructions is required")
	}

	ttl := params.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now()

	sess := &Session{
		ID:             uuid.NewString(),
		OwnerPublicKey: params.OwnerPublicKey,
		Instructions:   params.Instructions,
		SignerName:     params.SignerName,
		Status:         StatusWaiting,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		AuditLog: []AuditEntry{{
			Timestamp: now,
			Event:     AuditCreated,
			IP:        params.Meta.IP,
			UserAgent: params.Meta.UserAgent,
		}},
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	view := snapshotLocked(sess)
	s.mu.Unlock()

	s.logger.Info("session created",
		slog.String("session_id", sess.ID),
		slog.Time("expires_at", sess.ExpiresAt))

	return view, nil
}

// Get returns a snapshot of the session, or a not-found error.
//
// A session whose TTL has passed but which the sweeper has not yet visited is
// expired here first, so callers never observe a stale waiting status.
func (s *Store) Get(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return View{}, NewNotFoundError(id)
	}

	s.expireLockedIfDue(sess)

	return snapshotLocked(sess), nil
}

// Submit transitions the session waiting->completed, stores the envelope,
// appends the submitted audit entry, and wakes all registered waiters.
//
// A session accepts exactly one submission, ever: terminal states are
// rejected with expired / already-completed errors.
func (s *Store) Submit(id string, envelope *crypto.Envelope, meta RequestMeta) (View, error) {
	if envelope == nil {
		return View{}, NewValidationError("envelope is required")
	}

	// computed outside the critical section; deterministic for a given
	// envelope
	checksum, err := crypto.EnvelopeChecksum(envelope)
	if err != nil {
		return View{}, WrapValidationError(err, "failed to checksum envelope")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return View{}, NewNotFoundError(id)
	}

	s.expireLockedIfDue(sess)

	switch sess.Status {
	case StatusExpired:
		return View{}, NewExpiredError(id)
	case StatusCompleted:
		return View{}, NewAlreadyCompletedError(id)
	}

	sess.Status = StatusCompleted
	sess.EncryptedPayload = envelope
	sess.AuditLog = append(sess.AuditLog, AuditEntry{
		Timestamp:        s.now(),
		Event:            AuditSubmitted,
		IP:               meta.IP,
		UserAgent:        meta.UserAgent,
		EnvelopeChecksum: checksum,
	})

	view := snapshotLocked(sess)
	s.broadcastLocked(sess, view)

	s.logger.Info("session completed",
		slog.String("session_id", sess.ID),
		slog.String("envelope_checksum", checksum))

	return view, nil
}

// Poll returns the session's current view immediately if it is in a terminal
// state, otherwise it registers a waiter and blocks until a state transition,
// the timeout, or ctx cancellation.
//
// On timeout the returned view has StatusWaiting and the call has no side
// effects - the abandoned waiter channel is woken harmlessly (or never) by a
// later transition.
func (s *Store) Poll(ctx context.Context, id string, timeout time.Duration) (View, error) {
	s.mu.Lock()

	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return View{}, NewNotFoundError(id)
	}

	s.expireLockedIfDue(sess)

	if sess.Status != StatusWaiting {
		view := snapshotLocked(sess)
		s.mu.Unlock()
		return view, nil
	}

	wake := make(chan View, 1)
	sess.waiters = append(sess.waiters, wake)
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case view := <-wake:
		return view, nil
	case <-timer.C:
		return View{ID: id, Status: StatusWaiting}, nil
	case <-ctx.Done():
		// client went away; the registration is abandoned and released
		// on the next transition or deletion
		return View{}, ctx.Err()
	}
}

// SetClock overrides the store's time source. Intended for tests that need
// to drive expiry deterministically.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep performs one sweeper pass: expire every waiting session past its
// TTL (waking its waiters with the expired view), then delete every session
// past its retention window.
//
// The expiry transition for a record always happens before that record
// becomes eligible for deletion - within a single pass the expire step runs
// first, and any waiter still registered at deletion time is woken with the
// terminal view before the record is dropped.
func (s *Store) Sweep() (expired, deleted int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	for id, sess := range s.sessions {
		if s.expireLockedIfDue(sess) {
			expired++
		}

		if now.After(sess.ExpiresAt.Add(s.retention)) {
			if len(sess.waiters) > 0 {
				s.broadcastLocked(sess, snapshotLocked(sess))
			}
			delete(s.sessions, id)
			deleted++
		}
	}

	return expired, deleted
}

// expireLockedIfDue transitions a waiting session past its TTL to expired,
// appends the audit entry, and wakes all waiters. Caller must hold the lock.
// Returns true if the transition happened.
func (s *Store) expireLockedIfDue(sess *Session) bool {
	if sess.Status != StatusWaiting || !s.now().After(sess.ExpiresAt) {
		return false
	}

	sess.Status = StatusExpired
	sess.AuditLog = append(sess.AuditLog, AuditEntry{
		Timestamp: s.now(),
		Event:     AuditExpired,
	})

	s.broadcastLocked(sess, snapshotLocked(sess))

	s.logger.Info("session expired",
		slog.String("session_id", sess.ID))

	return true
}

// broadcastLocked wakes every registered waiter with the given view and
// clears the waiter set. Caller must hold the lock.
//
// Sends never block: each waiter channel has capacity 1 and receives at most
// one view over its lifetime, so waking a waiter whose poll already timed out
// is a safe no-op.
func (s *Store) broadcastLocked(sess *Session, view View) {
	for _, wake := range sess.waiters {
		select {
		case wake <- view:
		default:
		}
	}
	sess.waiters = nil
}
