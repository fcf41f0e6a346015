// this file contains functions to generate and manage the P-256 key pairs
// used by the signature session handshake.
//
// The owner generates a long-lived key pair before creating a session and
// uploads only the public half (as a JWK). The signer generates an ephemeral
// key pair per submission. Both sides derive the same shared secret via ECDH
// and the relay never holds a private key.
//
// keys are saved in JWK format

package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// GenerateP256KeyPair generates a new ECDSA key pair on curve P-256.
//
// The same curve is used for the owner's long-lived key and the signer's
// ephemeral key - the handshake requires both parties to be on P-256.
func GenerateP256KeyPair() (*ecdsa.PrivateKey, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to generate key pair")
	}

	return privateKey, nil
}

// SaveP256PrivateKeyToJWKFile saves a P-256 private key to a JWK file
// note the key is not encrypted
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.jwk")
func SaveP256PrivateKeyToJWKFile(privateKey *ecdsa.PrivateKey, keyID, baseDir, filename string) error {
	jwkKey, err := P256PrivateKeyToJWK(privateKey, keyID)
	if err != nil {
		return WrapKeyManagementError(err, "failed to create JWK")
	}

	jwkSet := jwk.NewSet()
	if err := jwkSet.AddKey(jwkKey); err != nil {
		return WrapKeyManagementError(err, "failed to add key to JWK set")
	}

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return WrapInternalError(err, "failed to marshal JWK set")
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	if err := root.WriteFile(filename, jsonBytes, 0600); err != nil {
		return WrapKeyManagementError(err, "failed to write file")
	}

	return nil
}

// SaveP256PublicKeyToJWKFile saves a P-256 public key to a JWK file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.jwk")
func SaveP256PublicKeyToJWKFile(publicKey *ecdsa.PublicKey, keyID, baseDir, filename string) error {
	jwkKey, err := P256PublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return WrapKeyManagementError(err, "failed to create JWK")
	}

	jwkSet := jwk.NewSet()
	if err := jwkSet.AddKey(jwkKey); err != nil {
		return WrapKeyManagementError(err, "failed to add key to JWK set")
	}

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return WrapInternalError(err, "failed to marshal JWK set")
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	if err := root.WriteFile(filename, jsonBytes, 0644); err != nil {
		return WrapKeyManagementError(err, "failed to write file")
	}

	return nil
}

// ReadP256PrivateKeyFromJWKFile loads a P-256 private key from a JWK file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.jwk")
func ReadP256PrivateKeyFromJWKFile(baseDir, filename string) (*ecdsa.PrivateKey, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	jsonBytes, err := root.ReadFile(filename)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to read file")
	}

	jwkSet, err := jwk.Parse(jsonBytes)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to parse JWK set")
	}

	if jwkSet.Len() == 0 {
		return nil, NewKeyManagementError("JWK set is empty")
	}

	jwkKey, ok := jwkSet.Key(0)
	if !ok {
		return nil, NewKeyManagementError("failed to get key from JWK set")
	}

	var raw any
	if err := jwk.Export(jwkKey, &raw); err != nil {
		return nil, WrapKeyManagementError(err, "failed to export key")
	}

	privateKey, ok := raw.(*ecdsa.PrivateKey)
	if !ok {
		return nil, NewKeyManagementError("key is not an ECDSA private key")
	}

	if privateKey.Curve != elliptic.P256() {
		return nil, NewKeyManagementError("private key is not on curve P-256")
	}

	return privateKey, nil
}

// ReadP256PublicKeyFromJWKFile loads a P-256 public key from a JWK file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.jwk")
func ReadP256PublicKeyFromJWKFile(baseDir, filename string) (*ecdsa.PublicKey, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	jsonBytes, err := root.ReadFile(filename)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to read file")
	}

	jwkSet, err := jwk.Parse(jsonBytes)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to parse JWK set")
	}

	if jwkSet.Len() == 0 {
		return nil, NewKeyManagementError("JWK set is empty")
	}

	jwkKey, ok := jwkSet.Key(0)
	if !ok {
		return nil, NewKeyManagementError("failed to get key from JWK set")
	}

	return JWKToP256PublicKey(jwkKey)
}
