package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwell-health/signature-relay/internal/config"
	"github.com/inkwell-health/signature-relay/internal/crypto"
	"github.com/inkwell-health/signature-relay/internal/server"
	"github.com/inkwell-health/signature-relay/internal/session"
	"github.com/inkwell-health/signature-relay/internal/signatures"
)

// startTestRelay runs the full router (middleware included) on an httptest
// server.
func startTestRelay(t *testing.T) (*httptest.Server, *session.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.RelayEnvironment{
		Environment:         "test",
		PublicBaseURL:       "http://relay.test",
		SessionTTL:          10 * time.Minute,
		SessionRetention:    time.Hour,
		MaxRequestBodyBytes: 1 << 20,
		PollDefaultTimeout:  time.Second,
		PollMaxTimeout:      5 * time.Second,
		// rate limiting off so concurrent pollers are not throttled
		RateLimitRPS: 0,
	}

	store := session.NewStore(cfg.SessionTTL, cfg.SessionRetention, logger)
	srv := server.NewServer(store, cfg, logger)

	testServer := httptest.NewServer(srv.Router())
	t.Cleanup(testServer.Close)

	return testServer, store
}

func TestEndToEndSignatureFlow(t *testing.T) {
	testServer, _ := startTestRelay(t)
	ctx := context.Background()

	// owner side: generate a key pair and create the session
	ownerKey, err := crypto.GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	keyID, err := crypto.GenerateKeyIDFromP256Key(&ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to generate key ID: %v", err)
	}
	ownerJWK, err := crypto.PublicKeyJWKJSON(&ownerKey.PublicKey, keyID)
	if err != nil {
		t.Fatalf("failed to serialize owner JWK: %v", err)
	}

	relay := NewClient(testServer.URL, nil)

	created, err := relay.CreateSession(ctx, &signatures.CreateSessionRequest{
		OwnerPublicKey: ownerJWK,
		Instructions:   "Sign the intake form",
		SignerName:     "Morgan Lee",
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("CreateSession() returned empty session id")
	}

	// owner side: start waiting before the signature arrives
	type awaitResult struct {
		resp *signatures.PollResponse
		err  error
	}
	awaited := make(chan awaitResult, 1)
	go func() {
		resp, err := relay.AwaitCompletion(ctx, created.SessionID, 5*time.Second)
		awaited <- awaitResult{resp, err}
	}()

	// signer side: fetch the info and submit the encrypted signature
	time.Sleep(100 * time.Millisecond)

	signatureImage := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a}
	capturedAt := time.Now().UTC().Truncate(time.Second)

	submitted, err := relay.SubmitSignature(ctx, created.SessionID, &crypto.SignaturePayload{
		SignatureImage: signatureImage,
		CapturedAt:     capturedAt,
	})
	if err != nil {
		t.Fatalf("SubmitSignature() error = %v", err)
	}
	if submitted.Status != session.StatusCompleted {
		t.Errorf("submit status = %s, want %s", submitted.Status, session.StatusCompleted)
	}

	// owner side: the pending poll must complete with the payload
	var result awaitResult
	select {
	case result = <-awaited:
	case <-time.After(10 * time.Second):
		t.Fatal("AwaitCompletion did not return after submission")
	}
	if result.err != nil {
		t.Fatalf("AwaitCompletion() error = %v", result.err)
	}
	if result.resp.Status != session.StatusCompleted {
		t.Fatalf("awaited status = %s, want %s", result.resp.Status, session.StatusCompleted)
	}
	if result.resp.EncryptedPayload == nil {
		t.Fatal("completed poll response is missing the encrypted payload")
	}

	// the relay recorded a checksum that matches the envelope it returned
	checksum, err := crypto.EnvelopeChecksum(result.resp.EncryptedPayload)
	if err != nil {
		t.Fatalf("EnvelopeChecksum() error = %v", err)
	}
	var sawSubmittedEntry bool
	for _, entry := range result.resp.AuditLog {
		if entry.Event == session.AuditSubmitted {
			sawSubmittedEntry = true
			if entry.EnvelopeChecksum != checksum {
				t.Errorf("audit checksum = %s, want %s", entry.EnvelopeChecksum, checksum)
			}
		}
	}
	if !sawSubmittedEntry {
		t.Error("audit log has no submitted entry")
	}

	// owner side: decrypt locally
	payload, err := crypto.OpenSignaturePayload(result.resp.EncryptedPayload, ownerKey)
	if err != nil {
		t.Fatalf("OpenSignaturePayload() error = %v", err)
	}
	if !bytes.Equal(payload.SignatureImage, signatureImage) {
		t.Error("decrypted signature image does not match what the signer sent")
	}
	if !payload.CapturedAt.Equal(capturedAt) {
		t.Errorf("decrypted CapturedAt = %v, want %v", payload.CapturedAt, capturedAt)
	}
}

func TestClientAPIErrors(t *testing.T) {
	testServer, _ := startTestRelay(t)
	ctx := context.Background()

	relay := NewClient(testServer.URL, nil)

	_, err := relay.GetSessionInfo(ctx, "no-such-id")
	if err == nil {
		t.Fatal("expected error for unknown session, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.ErrorCode != string(session.ErrCodeNotFound) {
		t.Errorf("ErrorCode = %q, want %q", apiErr.ErrorCode, session.ErrCodeNotFound)
	}
}

func TestAwaitCompletionSeesExpiry(t *testing.T) {
	testServer, store := startTestRelay(t)
	ctx := context.Background()

	ownerKey, err := crypto.GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	keyID, err := crypto.GenerateKeyIDFromP256Key(&ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to generate key ID: %v", err)
	}
	ownerJWK, err := crypto.PublicKeyJWKJSON(&ownerKey.PublicKey, keyID)
	if err != nil {
		t.Fatalf("failed to serialize owner JWK: %v", err)
	}

	relay := NewClient(testServer.URL, nil)

	created, err := relay.CreateSession(ctx, &signatures.CreateSessionRequest{
		OwnerPublicKey: ownerJWK,
		Instructions:   "Sign the intake form",
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// age the session past its TTL, then poll: the lazy expiry check must
	// surface the expired state without a sweeper running
	store.SetClock(func() time.Time { return time.Now().Add(11 * time.Minute) })

	resp, err := relay.AwaitCompletion(ctx, created.SessionID, time.Second)
	if err != nil {
		t.Fatalf("AwaitCompletion() error = %v", err)
	}
	if resp.Status != session.StatusExpired {
		t.Errorf("status = %s, want %s", resp.Status, session.StatusExpired)
	}
	if resp.EncryptedPayload != nil {
		t.Error("expired poll response must not carry a payload")
	}
}
