// JWK (JSON Web Key) handling for the signature session handshake
//
// these functions convert P-256 ECDSA keys to JWK format (and vice versa)
// Reference: https://datatracker.ietf.org/doc/html/rfc7517 (JSON Web Key standard)
//
// the owner's public key travels to the signer as a JWK in the session info
// response, and the signer's ephemeral public key travels back as a JWK
// inside the encrypted envelope. The relay treats both as opaque JSON beyond
// shape validation.

package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// P256PublicKeyToJWK converts a P-256 public key to JWK format
func P256PublicKeyToJWK(publicKey *ecdsa.PublicKey, keyID string) (jwk.Key, error) {
	if publicKey == nil {
		return nil, NewKeyManagementError("public key is nil")
	}
	if publicKey.Curve != elliptic.P256() {
		return nil, NewKeyManagementError("public key is not on curve P-256")
	}
	if keyID == "" {
		return nil, NewKeyManagementError("keyID is required")
	}

	// create the jwk key
	key, err := jwk.Import(publicKey)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to create JWK from public key")
	}

	// Set key ID
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key ID")
	}

	// Set algorithm - keys are used for ECDH key agreement, not signing
	if err := key.Set(jwk.AlgorithmKey, jwa.ECDH_ES()); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set algorithm")
	}

	// Set key usage
	if err := key.Set(jwk.KeyUsageKey, jwk.ForEncryption); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key usage")
	}

	return key, nil
}

// P256PrivateKeyToJWK converts a P-256 private key to JWK format
func P256PrivateKeyToJWK(privateKey *ecdsa.PrivateKey, keyID string) (jwk.Key, error) {
	if privateKey == nil {
		return nil, NewKeyManagementError("private key is nil")
	}
	if privateKey.Curve != elliptic.P256() {
		return nil, NewKeyManagementError("private key is not on curve P-256")
	}
	if keyID == "" {
		return nil, NewKeyManagementError("keyID is required")
	}

	key, err := jwk.Import(privateKey)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to create JWK from private key")
	}

	// Set key ID
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key ID")
	}

	// Set algorithm
	if err := key.Set(jwk.AlgorithmKey, jwa.ECDH_ES()); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set algorithm")
	}

	// Set key usage
	if err := key.Set(jwk.KeyUsageKey, jwk.ForEncryption); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key usage")
	}

	return key, nil
}

// JWKToP256PublicKey converts a JWK to a P-256 public key
func JWKToP256PublicKey(key jwk.Key) (*ecdsa.PublicKey, error) {
	if key == nil {
		return nil, NewKeyManagementError("key is nil")
	}

	var raw any
	// Export to raw key
	if err := jwk.Export(key, &raw); err != nil {
		return nil, WrapKeyManagementError(err, "failed to export public key")
	}

	publicKey, ok := raw.(*ecdsa.PublicKey)
	if !ok {
		alg, _ := key.Algorithm()
		return nil, NewKeyManagementError(
			fmt.Sprintf("expected ECDSA public key but got key with algorithm %v and type %T", alg, raw))
	}

	if publicKey.Curve != elliptic.P256() {
		return nil, NewKeyManagementError("public key is not on curve P-256")
	}

	return publicKey, nil
}

// ParsePublicKeyJWK parses a raw JWK JSON document into a P-256 public key.
//
// Use this for public keys received over the wire (the owner's key at session
// creation and the signer's ephemeral key inside a submitted envelope).
func ParsePublicKeyJWK(raw json.RawMessage) (*ecdsa.PublicKey, error) {
	if len(raw) == 0 {
		return nil, NewKeyManagementError("public key JWK is empty")
	}

	key, err := jwk.ParseKey(raw)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to parse public key JWK")
	}

	return JWKToP256PublicKey(key)
}

// PublicKeyJWKJSON serializes a P-256 public key as a raw JWK JSON document
// suitable for embedding in a request body or envelope.
func PublicKeyJWKJSON(publicKey *ecdsa.PublicKey, keyID string) (json.RawMessage, error) {
	key, err := P256PublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return nil, err
	}

	jsonBytes, err := json.Marshal(key)
	if err != nil {
		return nil, WrapInternalError(err, "failed to marshal JWK")
	}

	return jsonBytes, nil
}

// GenerateKeyIDFromP256Key generates a key ID from a P-256 public key using
// the SHA-256 thumbprint (RFC 7638).
// Returns the first 16 characters of the hex-encoded thumbprint.
func GenerateKeyIDFromP256Key(publicKey *ecdsa.PublicKey) (string, error) {
	if publicKey == nil {
		return "", NewKeyManagementError("public key is nil")
	}

	// Import to JWK to calculate thumbprint
	jwkKey, err := jwk.Import(publicKey)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to import key")
	}

	thumbprint, err := jwkKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to generate thumbprint")
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}
