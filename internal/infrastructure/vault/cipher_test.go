package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	cipher, err := NewCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	plaintext := []byte(`{"username":"INTEGRATION","password":"s3cret"}`)
	token, err := cipher.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, token, "s3cret")

	decrypted, err := cipher.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestCipher_UniqueCiphertexts(t *testing.T) {
	cipher, err := NewCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	first, err := cipher.Encrypt([]byte("same payload"))
	require.NoError(t, err)
	second, err := cipher.Encrypt([]byte("same payload"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCipher_RejectsTamperedToken(t *testing.T) {
	cipher, err := NewCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	token, err := cipher.Encrypt([]byte("payload"))
	require.NoError(t, err)

	tampered := []byte(token)
	tampered[len(tampered)-5] ^= 0x01
	_, err = cipher.Decrypt(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestCipher_RejectsWrongSecret(t *testing.T) {
	first, err := NewCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	second, err := NewCipher("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)

	token, err := first.Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = second.Decrypt(token)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewCipher_RejectsShortSecret(t *testing.T) {
	_, err := NewCipher("short")
	assert.Error(t, err)
}

func TestCipher_RejectsGarbage(t *testing.T) {
	cipher, err := NewCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	_, err = cipher.Decrypt("not base64 !!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = cipher.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
