// handshake.go implements the shared-secret derivation for signature
// sessions.
//
// Both sides compute ECDH over curve P-256:
//
//	signer: ECDH(ephemeral private key, owner public key)
//	owner:  ECDH(owner private key, ephemeral public key)
//
// The two derivations produce the same 256-bit secret, which is used directly
// as the AES-256-GCM key. The relay only ever sees the two public halves and
// cannot perform either derivation.

package crypto

import (
	"crypto/ecdsa"
)

const (
	// SharedSecretSize is the length in bytes of the ECDH shared secret,
	// used directly as the AES-256 key.
	SharedSecretSize = 32

	// IVSize is the length in bytes of the GCM nonce (96 bits).
	IVSize = 12
)

// DeriveSharedSecret computes the ECDH shared secret between our private key
// and the other party's public key. Both keys must be on curve P-256.
func DeriveSharedSecret(privateKey *ecdsa.PrivateKey, peerPublicKey *ecdsa.PublicKey) ([]byte, error) {
	if privateKey == nil {
		return nil, NewKeyManagementError("private key is nil")
	}
	if peerPublicKey == nil {
		return nil, NewKeyManagementError("peer public key is nil")
	}

	ecdhPrivate, err := privateKey.ECDH()
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to convert private key for ECDH")
	}

	ecdhPublic, err := peerPublicKey.ECDH()
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to convert peer public key for ECDH")
	}

	secret, err := ecdhPrivate.ECDH(ecdhPublic)
	if err != nil {
		return nil, WrapKeyManagementError(err, "ECDH key agreement failed")
	}

	if len(secret) != SharedSecretSize {
		return nil, NewInternalError("unexpected shared secret length")
	}

	return secret, nil
}
