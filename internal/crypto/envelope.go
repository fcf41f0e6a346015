// envelope.go implements the encrypted envelope carried through the relay.
//
// Submission flow:
// i)   signer generates an ephemeral P-256 key pair (used once)
// ii)  signer derives the shared secret from (ephemeral private key, owner public key)
// iii) signer encrypts the serialized signature payload with AES-256-GCM
//      under a fresh random 96-bit IV
// iv)  signer uploads {ciphertext, iv, ephemeralPublicKey} to the relay
// v)   owner derives the same secret from (owner private key, ephemeral
//      public key) and decrypts locally
//
// The GCM authentication tag is appended to the ciphertext per standard AEAD
// packaging. The relay stores the envelope as opaque bytes.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"
)

// SignaturePayload is the plaintext that gets encrypted into an Envelope.
//
// SignatureImage is the raw image bytes (e.g. a PNG of the drawn signature) -
// the relay and the document pipeline treat it as an opaque bitmap.
type SignaturePayload struct {
	SignatureImage []byte    `json:"signatureImage"`
	CapturedAt     time.Time `json:"capturedAt"`
}

// Validate checks that all required fields are present
func (p *SignaturePayload) Validate() error {
	if len(p.SignatureImage) == 0 {
		return NewValidationError("signatureImage is required")
	}
	if p.CapturedAt.IsZero() {
		return NewValidationError("capturedAt is required")
	}
	return nil
}

// Envelope is the tuple that fully describes one encrypted submission.
//
// Ciphertext and IV are base64 (standard encoding); EphemeralPublicKey is the
// signer's single-use public key as a raw JWK document.
type Envelope struct {
	Ciphertext         string          `json:"ciphertext"`
	IV                 string          `json:"iv"`
	EphemeralPublicKey json.RawMessage `json:"ephemeralPublicKey"`
}

// Validate checks the envelope shape: all fields present, ciphertext and IV
// decode as base64, and the IV is 96 bits.
//
// This is the only inspection the relay performs - the ciphertext itself is
// opaque to it.
func (e *Envelope) Validate() error {
	if e.Ciphertext == "" {
		return NewValidationError("ciphertext is required")
	}
	if e.IV == "" {
		return NewValidationError("iv is required")
	}
	if len(e.EphemeralPublicKey) == 0 {
		return NewValidationError("ephemeralPublicKey is required")
	}

	if _, err := base64.StdEncoding.DecodeString(e.Ciphertext); err != nil {
		return WrapValidationError(err, "ciphertext is not valid base64")
	}

	iv, err := base64.StdEncoding.DecodeString(e.IV)
	if err != nil {
		return WrapValidationError(err, "iv is not valid base64")
	}
	if len(iv) != IVSize {
		return NewValidationError("iv must be 96 bits")
	}

	if _, err := ParsePublicKeyJWK(e.EphemeralPublicKey); err != nil {
		return WrapValidationError(err, "ephemeralPublicKey is not a valid P-256 JWK")
	}

	return nil
}

// Seal encrypts plaintext into an Envelope using the signer side of the
// handshake.
//
// ephemeralKey must be a freshly generated single-use key pair; its public
// half is embedded in the envelope so the owner can derive the same secret.
func Seal(plaintext []byte, ephemeralKey *ecdsa.PrivateKey, ownerPublicKey *ecdsa.PublicKey) (*Envelope, error) {
	if len(plaintext) == 0 {
		return nil, NewValidationError("plaintext is empty")
	}

	secret, err := DeriveSharedSecret(ephemeralKey, ownerPublicKey)
	if err != nil {
		return nil, err
	}

	aead, err := newGCM(secret)
	if err != nil {
		return nil, err
	}

	// IV must be freshly random per submission - GCM nonce reuse under the
	// same key breaks confidentiality and authenticity.
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, WrapInternalError(err, "failed to generate IV")
	}

	ciphertext := aead.Seal(nil, iv, plaintext, nil)

	keyID, err := GenerateKeyIDFromP256Key(&ephemeralKey.PublicKey)
	if err != nil {
		return nil, err
	}

	ephemeralJWK, err := PublicKeyJWKJSON(&ephemeralKey.PublicKey, keyID)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Ciphertext:         base64.StdEncoding.EncodeToString(ciphertext),
		IV:                 base64.StdEncoding.EncodeToString(iv),
		EphemeralPublicKey: ephemeralJWK,
	}, nil
}

// Open decrypts an Envelope using the owner side of the handshake.
//
// An authentication failure (tag mismatch) is returned as a decryption error
// and must be treated as a hard failure by the caller - it indicates
// tampering or a key mismatch, never "no signature yet".
func Open(envelope *Envelope, ownerPrivateKey *ecdsa.PrivateKey) ([]byte, error) {
	if envelope == nil {
		return nil, NewValidationError("envelope is nil")
	}
	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	ephemeralPublicKey, err := ParsePublicKeyJWK(envelope.EphemeralPublicKey)
	if err != nil {
		return nil, err
	}

	secret, err := DeriveSharedSecret(ownerPrivateKey, ephemeralPublicKey)
	if err != nil {
		return nil, err
	}

	aead, err := newGCM(secret)
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		return nil, WrapValidationError(err, "ciphertext is not valid base64")
	}

	iv, err := base64.StdEncoding.DecodeString(envelope.IV)
	if err != nil {
		return nil, WrapValidationError(err, "iv is not valid base64")
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, WrapDecryptionError(err, "envelope authentication failed")
	}

	return plaintext, nil
}

// SealSignaturePayload serializes and encrypts a SignaturePayload for the
// owner identified by ownerPublicKeyJWK, generating the ephemeral key pair
// internally. This is the complete signer-side submission path.
func SealSignaturePayload(payload *SignaturePayload, ownerPublicKeyJWK json.RawMessage) (*Envelope, error) {
	if payload == nil {
		return nil, NewValidationError("payload is nil")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	ownerPublicKey, err := ParsePublicKeyJWK(ownerPublicKeyJWK)
	if err != nil {
		return nil, err
	}

	ephemeralKey, err := GenerateP256KeyPair()
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapInternalError(err, "failed to marshal signature payload")
	}

	return Seal(plaintext, ephemeralKey, ownerPublicKey)
}

// OpenSignaturePayload decrypts an Envelope and deserializes the
// SignaturePayload. This is the complete owner-side path after a successful
// poll.
func OpenSignaturePayload(envelope *Envelope, ownerPrivateKey *ecdsa.PrivateKey) (*SignaturePayload, error) {
	plaintext, err := Open(envelope, ownerPrivateKey)
	if err != nil {
		return nil, err
	}

	var payload SignaturePayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, WrapDecryptionError(err, "decrypted payload is not a valid signature payload")
	}

	return &payload, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, WrapInternalError(err, "failed to create AES cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, WrapInternalError(err, "failed to create GCM")
	}

	return aead, nil
}
