package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// SecretCipher seals webhook signing secrets at rest. The associated data
// binds a ciphertext to its owner so rows cannot be swapped between merchants.
type SecretCipher interface {
	Seal(plaintext, associated string) (ciphertext, iv string, err error)
	Open(ciphertext, iv, associated string) (plaintext string, err error)
}

// AESGCMCipher implements SecretCipher with AES-256-GCM
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCMCipher builds a cipher from a 64-char hex key
func NewAESGCMCipher(hexKey string) (*AESGCMCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.New("invalid encryption key format")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMCipher{aead: aead}, nil
}

func (c *AESGCMCipher) Seal(plaintext, associated string) (string, string, error) {
	iv := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", err
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), []byte(associated))
	return base64.StdEncoding.EncodeToString(sealed),
		base64.StdEncoding.EncodeToString(iv),
		nil
}

func (c *AESGCMCipher) Open(ciphertextB64, ivB64, associated string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	if len(iv) != c.aead.NonceSize() {
		return "", errors.New("invalid iv length")
	}

	plaintext, err := c.aead.Open(nil, iv, sealed, []byte(associated))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateWebhookSecret returns a new "whsec_" prefixed signing secret
func GenerateWebhookSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}
