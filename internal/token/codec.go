// Package token generates and digests the single-use plaintext tokens
// embedded in verification emails, and the opaque session tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

const rawLen = 32 // 256 bits of entropy

// GeneratePlain returns a fresh URL-safe token from the CSPRNG.
func GeneratePlain() (string, error) {
	raw := make([]byte, rawLen)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Hash returns the hex SHA-256 digest stored in place of the plaintext.
// Unsalted on purpose: the input is itself high-entropy and single-use,
// and the digest must be directly usable as a lookup key.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
