// Package randx provides helpers for generating random tokens.
package randx

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// HexString generates a random hexadecimal string from size random bytes.
// The resulting string is twice as long as size.
func HexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// URLToken generates a random URL-safe token from size random bytes.
// Suitable for email-verification links and OAuth state values.
func URLToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
