package domain

import (
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBlob(t *testing.T, ciphertextLen int) EncryptedBlob {
	t.Helper()
	blob := EncryptedBlob{
		IV:         make([]byte, NonceSize),
		Ciphertext: make([]byte, ciphertextLen),
		Tag:        make([]byte, TagSize),
	}
	_, err := rand.Read(blob.IV)
	require.NoError(t, err)
	_, err = rand.Read(blob.Ciphertext)
	require.NoError(t, err)
	_, err = rand.Read(blob.Tag)
	require.NoError(t, err)
	return blob
}

func TestEncryptedBlobJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		blob := randomBlob(t, 48)

		data, err := json.Marshal(blob)
		require.NoError(t, err)

		var decoded EncryptedBlob
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, blob, decoded)
	})

	t.Run("uses the fixed record field names", func(t *testing.T) {
		data, err := json.Marshal(randomBlob(t, 8))
		require.NoError(t, err)

		var raw map[string]string
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Contains(t, raw, "iv")
		assert.Contains(t, raw, "ciphertext")
		assert.Contains(t, raw, "authTag")
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		var decoded EncryptedBlob
		err := json.Unmarshal([]byte(`{"iv":"!!","ciphertext":"","authTag":""}`), &decoded)
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("rejects wrong IV length", func(t *testing.T) {
		blob := randomBlob(t, 8)
		blob.IV = blob.IV[:NonceSize-1]
		data, err := json.Marshal(blob)
		require.NoError(t, err)

		var decoded EncryptedBlob
		assert.ErrorIs(t, json.Unmarshal(data, &decoded), ErrMalformedBlob)
	})

	t.Run("rejects wrong tag length", func(t *testing.T) {
		blob := randomBlob(t, 8)
		blob.Tag = append(blob.Tag, 0)
		data, err := json.Marshal(blob)
		require.NoError(t, err)

		var decoded EncryptedBlob
		assert.ErrorIs(t, json.Unmarshal(data, &decoded), ErrMalformedBlob)
	})
}

func TestEncryptedBlobHex(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		blob := randomBlob(t, 21)

		decoded, err := DecodeHex(blob.EncodeHex())
		require.NoError(t, err)
		assert.Equal(t, blob, decoded)
	})

	t.Run("empty ciphertext is valid", func(t *testing.T) {
		blob := randomBlob(t, 0)

		decoded, err := DecodeHex(blob.EncodeHex())
		require.NoError(t, err)
		assert.Equal(t, blob.IV, decoded.IV)
		assert.Equal(t, blob.Tag, decoded.Tag)
		assert.Empty(t, decoded.Ciphertext)
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := DecodeHex("zz")
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("rejects truncated payload", func(t *testing.T) {
		blob := randomBlob(t, 4)
		encoded := blob.EncodeHex()
		_, err := DecodeHex(encoded[:2*(NonceSize+TagSize)-2])
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})
}
