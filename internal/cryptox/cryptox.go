// Package cryptox encrypts settings values that must not be stored in
// cleartext (OAuth client secrets, refresh tokens, storage keys).
//
// Values are sealed with AES-GCM under a 32-byte key supplied by server
// configuration. The random nonce is prepended to the ciphertext and the
// whole blob is base64-encoded so it can live in a text column.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Box seals and opens strings under a fixed symmetric key.
type Box struct {
	aead cipher.AEAD
}

// NewBox builds a Box from a 16-, 24- or 32-byte AES key.
func NewBox(key []byte) (*Box, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}
	return &Box{aead: aead}, nil
}

// EncryptString seals plaintext and returns a base64 blob of nonce||ciphertext.
func (b *Box) EncryptString(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString. Corrupt or truncated input yields
// ErrInvalidCiphertext rather than a panic.
func (b *Box) DecryptString(blob string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	ns := b.aead.NonceSize()
	if len(sealed) < ns {
		return "", ErrInvalidCiphertext
	}
	plaintext, err := b.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
