package crypto

import (
	"testing"
)

func TestHash(t *testing.T) {
	result, err := Hash([]byte("hello world"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	expected := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if result != expected {
		t.Errorf("Hash() = %v, want %v", result, expected)
	}

	if _, err := Hash(nil); err == nil {
		t.Error("expected error for empty data, got nil")
	}
}

func TestCanonicalizeJSON(t *testing.T) {
	// key order must not affect the canonical form
	first, err := CanonicalizeJSON([]byte(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON() error = %v", err)
	}
	second, err := CanonicalizeJSON([]byte(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("canonical forms differ: %s vs %s", first, second)
	}

	if _, err := CanonicalizeJSON([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestEnvelopeChecksum(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	ephemeralKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate ephemeral key: %v", err)
	}

	envelope, err := Seal([]byte("payload"), ephemeralKey, &ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	checksum, err := EnvelopeChecksum(envelope)
	if err != nil {
		t.Fatalf("EnvelopeChecksum() error = %v", err)
	}
	if len(checksum) != 64 {
		t.Errorf("checksum length = %d, want 64 hex chars", len(checksum))
	}

	// stable across recomputation
	again, err := EnvelopeChecksum(envelope)
	if err != nil {
		t.Fatalf("EnvelopeChecksum() error = %v", err)
	}
	if checksum != again {
		t.Error("checksum not stable for the same envelope")
	}

	// any field change must change the checksum
	modified := *envelope
	modified.Ciphertext = "QUJDRA=="
	modifiedSum, err := EnvelopeChecksum(&modified)
	if err != nil {
		t.Fatalf("EnvelopeChecksum() error = %v", err)
	}
	if modifiedSum == checksum {
		t.Error("modified envelope should have a different checksum")
	}

	if _, err := EnvelopeChecksum(nil); err == nil {
		t.Error("expected error for nil envelope, got nil")
	}
}
