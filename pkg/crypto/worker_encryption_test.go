package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"short key is stretched", "secret"},
		{"32 byte key", "0123456789abcdef0123456789abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncryptor([]byte(tt.key))
			require.NoError(t, err)

			ct, err := enc.Encrypt("ya29.refresh-token")
			require.NoError(t, err)
			assert.NotEqual(t, "ya29.refresh-token", ct)
			assert.True(t, IsEncrypted(ct))

			pt, err := enc.Decrypt(ct)
			require.NoError(t, err)
			assert.Equal(t, "ya29.refresh-token", pt)
		})
	}
}

func TestEncryptor_Errors(t *testing.T) {
	_, err := NewEncryptor(nil)
	assert.ErrorIs(t, err, ErrEmptyKey)

	a, err := NewEncryptor([]byte("key-a"))
	require.NoError(t, err)
	b, err := NewEncryptor([]byte("key-b"))
	require.NoError(t, err)

	ct, err := a.Encrypt("token")
	require.NoError(t, err)

	_, err = b.Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = a.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	empty, err := a.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.False(t, IsEncrypted("plain-token"))
}
