package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorRoundTrip(t *testing.T) {
	enc, err := NewEncryptor("a-passphrase-with-enough-length")
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("shpat_secret_token")
	require.NoError(t, err)
	assert.NotEqual(t, "shpat_secret_token", ciphertext)

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "shpat_secret_token", plaintext)
}

func TestEncryptorRejectsShortKey(t *testing.T) {
	_, err := NewEncryptor("too-short")
	assert.Error(t, err)
}

func TestEncryptorWrongKey(t *testing.T) {
	enc1, err := NewEncryptor("first-passphrase-0123456789")
	require.NoError(t, err)
	enc2, err := NewEncryptor("other-passphrase-0123456789")
	require.NoError(t, err)

	ciphertext, err := enc1.Encrypt("token")
	require.NoError(t, err)

	_, err = enc2.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestEncryptorDecryptGarbage(t *testing.T) {
	enc, err := NewEncryptor("a-passphrase-with-enough-length")
	require.NoError(t, err)

	_, err = enc.Decrypt("not-base64!!")
	assert.Error(t, err)

	_, err = enc.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}
