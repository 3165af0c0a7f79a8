package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte("k"), 32)
}

func TestNewCipher_RejectsBadKeyLength(t *testing.T) {
	_, err := NewCipher([]byte("too-short"))
	assert.Error(t, err)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	plaintext := []byte(`{"access_token":"ya29.secret","refresh_token":"1//secret"}`)
	sealed, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)

	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	a, err := c.Encrypt([]byte("same input"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecrypt_RejectsTamperedCiphertext(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	sealed, err := c.Encrypt([]byte("credential"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = c.Decrypt(sealed)
	assert.Error(t, err)
}

func TestDecrypt_RejectsShortCiphertext(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	_, err = c.Decrypt([]byte{1, 2, 3})
	assert.Error(t, err)
}
