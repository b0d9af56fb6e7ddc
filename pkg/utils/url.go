package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashURL creates a SHA256 hash of a URL string. Artifact identities and
// Redis keys both use it so the same listing always maps to the same key.
func HashURL(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(h[:])
}

// ShortHashURL is the truncated form used where a full digest is overkill,
// e.g. artifact file names.
func ShortHashURL(rawURL string) string {
	return HashURL(rawURL)[:12]
}
