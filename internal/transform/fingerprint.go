package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FingerprintPrefix marks the hash algorithm of stored fingerprints
const FingerprintPrefix = "sha256:"

// Fingerprint hashes the canonical JSON encoding of v. Maps are encoded with
// sorted keys, so equal content always yields the same fingerprint.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return FingerprintPrefix + hex.EncodeToString(sum[:]), nil
}
