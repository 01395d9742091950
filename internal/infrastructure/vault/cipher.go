// Package vault provides the payload encryption used by the credential
// vault. Payloads are sealed with AES-256-GCM under a key derived from the
// master secret with scrypt; each ciphertext carries its own salt and nonce.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16
	keySize  = 32

	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// ErrInvalidCiphertext indicates a malformed or tampered payload
var ErrInvalidCiphertext = errors.New("vault: invalid ciphertext")

// Cipher seals and opens credential payloads
type Cipher struct {
	masterSecret []byte
}

// NewCipher creates a cipher from the configured master secret
func NewCipher(masterSecret string) (*Cipher, error) {
	if len(masterSecret) < 16 {
		return nil, errors.New("vault: master secret must be at least 16 bytes")
	}
	return &Cipher{masterSecret: []byte(masterSecret)}, nil
}

// Encrypt seals plaintext and returns a base64 token of salt||nonce||sealed
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("vault: generate salt: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a token produced by Encrypt
func (c *Cipher) Decrypt(token string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	if len(blob) < saltSize {
		return nil, ErrInvalidCiphertext
	}

	salt := blob[:saltSize]
	gcm, err := c.aead(salt)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < saltSize+nonceSize {
		return nil, ErrInvalidCiphertext
	}
	nonce := blob[saltSize : saltSize+nonceSize]
	sealed := blob[saltSize+nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(c.masterSecret, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: init gcm: %w", err)
	}
	return gcm, nil
}
