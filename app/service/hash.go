package service

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken converts an opaque bearer secret into its storable form: the
// hex-encoded SHA-256 digest. Deterministic, no side effects. Raw token
// values must never be persisted.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
