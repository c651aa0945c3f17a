package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns a short stable fingerprint suitable for cache keys and logs.
func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:8])
}
