package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashDeletionKey is the one-way hash persisted instead of the plaintext
// deletion secret. SHA-256 over a UUIDv4 secret; the hex digest is what the
// delete-by-secret query matches on.
func HashDeletionKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
