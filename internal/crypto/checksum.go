// checksum.go provides the SHA-256 checksum recorded in the audit trail when
// an envelope is submitted.
//
// The envelope JSON is canonicalized per RFC 8785 before hashing so the
// checksum is stable across serializations - the owner can recompute it from
// the envelope returned by a poll and compare it against the audit entry.

package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// CanonicalizeJSON converts JSON to canonical form per RFC 8785
//
// If the input is not valid JSON, an error is returned (handled by jcs library).
func CanonicalizeJSON(jsonData []byte) ([]byte, error) {
	return jcs.Transform(jsonData)
}

// Hash calculates the SHA-256 checksum of data and returns a hex string.
func Hash(data []byte) (string, error) {
	if len(data) == 0 {
		return "", NewValidationError("data is empty")
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// EnvelopeChecksum returns the SHA-256 checksum of the canonicalized envelope
// JSON.
func EnvelopeChecksum(envelope *Envelope) (string, error) {
	if envelope == nil {
		return "", NewValidationError("envelope is nil")
	}

	jsonBytes, err := json.Marshal(envelope)
	if err != nil {
		return "", WrapInternalError(err, "failed to marshal envelope")
	}

	canonical, err := CanonicalizeJSON(jsonBytes)
	if err != nil {
		return "", WrapInternalError(err, "failed to canonicalize envelope")
	}

	return Hash(canonical)
}
