// Package crypto provides authenticated symmetric encryption for
// provider access tokens stored at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// keyLength is the AES-256 key size in bytes.
const keyLength = 32

// ErrInvalidKey is returned when no usable key material is provided.
var ErrInvalidKey = errors.New("invalid encryption key")

// Encryptor encrypts and decrypts opaque secret strings with AES-256-GCM.
// Ciphertexts are base64-encoded with the nonce prepended.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an Encryptor from the given key material.
// Key material is normalized to 32 bytes: shorter keys are padded with
// '=' (matching the legacy key format), longer keys are truncated.
// An empty key returns ErrInvalidKey.
func NewEncryptor(key string) (*Encryptor, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(normalizeKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

func normalizeKey(key string) []byte {
	b := []byte(key)
	if len(b) >= keyLength {
		return b[:keyLength]
	}
	padded := make([]byte, keyLength)
	copy(padded, b)
	for i := len(b); i < keyLength; i++ {
		padded[i] = '='
	}
	return padded
}

// Encrypt encrypts plaintext and returns the base64-encoded ciphertext.
// An empty plaintext returns an empty string: "no secret" is distinct
// from an encrypted empty string.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts a base64-encoded ciphertext produced by Encrypt.
// Tampered or foreign ciphertexts fail authentication and return an
// error. An empty ciphertext returns an empty string.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.New("ciphertext shorter than nonce")
	}

	plaintext, err := e.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
