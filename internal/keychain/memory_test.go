package keychain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Run("get missing record", func(t *testing.T) {
		kc := NewMemory()
		_, err := kc.Get("svc", "acct")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		kc := NewMemory()
		require.NoError(t, kc.Set("svc", "acct", "value"))

		value, err := kc.Get("svc", "acct")
		require.NoError(t, err)
		assert.Equal(t, "value", value)
	})

	t.Run("set replaces existing record", func(t *testing.T) {
		kc := NewMemory()
		require.NoError(t, kc.Set("svc", "acct", "old"))
		require.NoError(t, kc.Set("svc", "acct", "new"))

		value, err := kc.Get("svc", "acct")
		require.NoError(t, err)
		assert.Equal(t, "new", value)
	})

	t.Run("accounts are scoped by service", func(t *testing.T) {
		kc := NewMemory()
		require.NoError(t, kc.Set("svc-a", "acct", "a"))
		require.NoError(t, kc.Set("svc-b", "acct", "b"))

		value, err := kc.Get("svc-a", "acct")
		require.NoError(t, err)
		assert.Equal(t, "a", value)
		assert.Equal(t, 2, kc.Len())
	})

	t.Run("delete", func(t *testing.T) {
		kc := NewMemory()
		require.NoError(t, kc.Set("svc", "acct", "value"))
		require.NoError(t, kc.Delete("svc", "acct"))

		_, err := kc.Get("svc", "acct")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, kc.Delete("svc", "acct"), ErrNotFound)
	})
}
