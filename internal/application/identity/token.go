package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// newRawToken generates a 32-byte random token, hex encoded. The raw value
// goes into the mail; only its digest is ever stored.
func newRawToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// digestToken returns the SHA-256 digest of a raw token, hex encoded.
// Looking tokens up by digest gives constant-time comparison for free.
func digestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
