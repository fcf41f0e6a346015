package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSealOpenRoundTrip(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	ephemeralKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate ephemeral key: %v", err)
	}

	plaintext := []byte("signature bitmap bytes")

	envelope, err := Seal(plaintext, ephemeralKey, &ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if err := envelope.Validate(); err != nil {
		t.Fatalf("sealed envelope failed validation: %v", err)
	}

	decrypted, err := Open(envelope, ownerKey)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Open() = %q, want %q", decrypted, plaintext)
	}
}

func TestSealFreshIVPerEnvelope(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	ephemeralKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate ephemeral key: %v", err)
	}

	first, err := Seal([]byte("payload"), ephemeralKey, &ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	second, err := Seal([]byte("payload"), ephemeralKey, &ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if first.IV == second.IV {
		t.Error("two seals of the same plaintext should use different IVs")
	}
	if first.Ciphertext == second.Ciphertext {
		t.Error("two seals of the same plaintext should produce different ciphertexts")
	}
}

func TestOpenTamperedCiphertext(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	ephemeralKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate ephemeral key: %v", err)
	}

	envelope, err := Seal([]byte("authentic payload"), ephemeralKey, &ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	// flip one bit in the ciphertext
	raw, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		t.Fatalf("failed to decode ciphertext: %v", err)
	}
	raw[0] ^= 0x01
	envelope.Ciphertext = base64.StdEncoding.EncodeToString(raw)

	_, err = Open(envelope, ownerKey)
	if err == nil {
		t.Fatal("expected authentication failure for tampered ciphertext, got nil")
	}

	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) {
		t.Fatalf("expected *CryptoError, got %T", err)
	}
	if cryptoErr.Code() != ErrCodeDecryption {
		t.Errorf("error code = %s, want %s", cryptoErr.Code(), ErrCodeDecryption)
	}
}

func TestOpenWrongPrivateKey(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	ephemeralKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate ephemeral key: %v", err)
	}
	otherKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate unrelated key: %v", err)
	}

	envelope, err := Seal([]byte("authentic payload"), ephemeralKey, &ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	_, err = Open(envelope, otherKey)
	if err == nil {
		t.Fatal("expected decryption failure with the wrong private key, got nil")
	}

	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) {
		t.Fatalf("expected *CryptoError, got %T", err)
	}
	if cryptoErr.Code() != ErrCodeDecryption {
		t.Errorf("error code = %s, want %s", cryptoErr.Code(), ErrCodeDecryption)
	}
}

func TestEnvelopeValidate(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	keyID, err := GenerateKeyIDFromP256Key(&ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to generate key ID: %v", err)
	}
	validJWK, err := PublicKeyJWKJSON(&ownerKey.PublicKey, keyID)
	if err != nil {
		t.Fatalf("failed to serialize JWK: %v", err)
	}

	validIV := base64.StdEncoding.EncodeToString(make([]byte, IVSize))
	validCiphertext := base64.StdEncoding.EncodeToString([]byte("ciphertext"))

	tests := []struct {
		name                string
		envelope            Envelope
		wantErr             bool
		expectedErrContains string
	}{
		{
			name:     "valid",
			envelope: Envelope{Ciphertext: validCiphertext, IV: validIV, EphemeralPublicKey: validJWK},
			wantErr:  false,
		},
		{
			name:                "missing ciphertext",
			envelope:            Envelope{IV: validIV, EphemeralPublicKey: validJWK},
			wantErr:             true,
			expectedErrContains: "ciphertext is required",
		},
		{
			name:                "missing iv",
			envelope:            Envelope{Ciphertext: validCiphertext, EphemeralPublicKey: validJWK},
			wantErr:             true,
			expectedErrContains: "iv is required",
		},
		{
			name:                "missing ephemeral public key",
			envelope:            Envelope{Ciphertext: validCiphertext, IV: validIV},
			wantErr:             true,
			expectedErrContains: "ephemeralPublicKey is required",
		},
		{
			name:                "ciphertext not base64",
			envelope:            Envelope{Ciphertext: "not-base64!!!", IV: validIV, EphemeralPublicKey: validJWK},
			wantErr:             true,
			expectedErrContains: "ciphertext is not valid base64",
		},
		{
			name:                "iv wrong size",
			envelope:            Envelope{Ciphertext: validCiphertext, IV: base64.StdEncoding.EncodeToString(make([]byte, 16)), EphemeralPublicKey: validJWK},
			wantErr:             true,
			expectedErrContains: "iv must be 96 bits",
		},
		{
			name:                "ephemeral public key not a JWK",
			envelope:            Envelope{Ciphertext: validCiphertext, IV: validIV, EphemeralPublicKey: []byte(`{"kty":"oct"}`)},
			wantErr:             true,
			expectedErrContains: "ephemeralPublicKey is not a valid P-256 JWK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.envelope.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.expectedErrContains) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.expectedErrContains)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestSealSignaturePayloadRoundTrip(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	keyID, err := GenerateKeyIDFromP256Key(&ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to generate key ID: %v", err)
	}
	ownerJWK, err := PublicKeyJWKJSON(&ownerKey.PublicKey, keyID)
	if err != nil {
		t.Fatalf("failed to serialize owner JWK: %v", err)
	}

	capturedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	payload := &SignaturePayload{
		SignatureImage: []byte{0x89, 0x50, 0x4e, 0x47},
		CapturedAt:     capturedAt,
	}

	envelope, err := SealSignaturePayload(payload, ownerJWK)
	if err != nil {
		t.Fatalf("SealSignaturePayload() error = %v", err)
	}

	decrypted, err := OpenSignaturePayload(envelope, ownerKey)
	if err != nil {
		t.Fatalf("OpenSignaturePayload() error = %v", err)
	}

	if !bytes.Equal(decrypted.SignatureImage, payload.SignatureImage) {
		t.Error("decrypted signature image does not match original")
	}
	if !decrypted.CapturedAt.Equal(capturedAt) {
		t.Errorf("decrypted CapturedAt = %v, want %v", decrypted.CapturedAt, capturedAt)
	}
}

func TestSealSignaturePayloadValidation(t *testing.T) {
	ownerKey, err := GenerateP256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate owner key: %v", err)
	}
	keyID, err := GenerateKeyIDFromP256Key(&ownerKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to generate key ID: %v", err)
	}
	ownerJWK, err := PublicKeyJWKJSON(&ownerKey.PublicKey, keyID)
	if err != nil {
		t.Fatalf("failed to serialize owner JWK: %v", err)
	}

	if _, err := SealSignaturePayload(nil, ownerJWK); err == nil {
		t.Error("expected error for nil payload, got nil")
	}

	empty := &SignaturePayload{CapturedAt: time.Now()}
	if _, err := SealSignaturePayload(empty, ownerJWK); err == nil {
		t.Error("expected error for empty signature image, got nil")
	}

	noTimestamp := &SignaturePayload{SignatureImage: []byte("img")}
	if _, err := SealSignaturePayload(noTimestamp, ownerJWK); err == nil {
		t.Error("expected error for zero capturedAt, got nil")
	}

	valid := &SignaturePayload{SignatureImage: []byte("img"), CapturedAt: time.Now()}
	if _, err := SealSignaturePayload(valid, []byte("not json")); err == nil {
		t.Error("expected error for invalid owner JWK, got nil")
	}
}
