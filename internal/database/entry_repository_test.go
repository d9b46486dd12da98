package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secretsDomain "github.com/allisson/credstore/internal/secrets/domain"
)

func TestEntryRepository(t *testing.T) {
	ctx := context.Background()
	_, _, entries, _ := openTestDB(t)

	t.Run("get missing entry", func(t *testing.T) {
		_, err := entries.Get(ctx, "missing")
		assert.ErrorIs(t, err, secretsDomain.ErrEntryNotFound)
	})

	t.Run("save then get", func(t *testing.T) {
		entry := secretsDomain.NewEntry("anthropic", map[string]string{
			"ANTHROPIC_API_KEY":  secretsDomain.SecretPlaceholder,
			"ANTHROPIC_BASE_URL": "https://api.anthropic.com",
		})
		entry.Tags = []string{"ai", "prod"}
		entry.Notes = "primary account"
		require.NoError(t, entries.Save(ctx, entry))

		loaded, err := entries.Get(ctx, "anthropic")
		require.NoError(t, err)
		assert.Equal(t, entry.Metadata, loaded.Metadata)
		assert.Equal(t, entry.Tags, loaded.Tags)
		assert.Equal(t, "primary account", loaded.Notes)
		assert.False(t, loaded.CreatedAt.IsZero())
		assert.False(t, loaded.UpdatedAt.IsZero())
	})

	t.Run("save preserves creation timestamp", func(t *testing.T) {
		entry := secretsDomain.NewEntry("stable", map[string]string{"K": "v"})
		require.NoError(t, entries.Save(ctx, entry))

		loaded, err := entries.Get(ctx, "stable")
		require.NoError(t, err)
		created := loaded.CreatedAt

		time.Sleep(1100 * time.Millisecond)
		loaded.Notes = "updated"
		require.NoError(t, entries.Save(ctx, loaded))

		reloaded, err := entries.Get(ctx, "stable")
		require.NoError(t, err)
		assert.Equal(t, created, reloaded.CreatedAt)
		assert.True(t, reloaded.UpdatedAt.After(reloaded.CreatedAt))
	})

	t.Run("entry without tags or notes", func(t *testing.T) {
		entry := secretsDomain.NewEntry("bare", map[string]string{"K": "v"})
		require.NoError(t, entries.Save(ctx, entry))

		loaded, err := entries.Get(ctx, "bare")
		require.NoError(t, err)
		assert.Nil(t, loaded.Tags)
		assert.Empty(t, loaded.Notes)
	})

	t.Run("list", func(t *testing.T) {
		all, err := entries.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, all, "anthropic")
		assert.Contains(t, all, "stable")
		assert.Contains(t, all, "bare")
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := entries.Delete(ctx, "bare")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = entries.Delete(ctx, "bare")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestSecretRepository(t *testing.T) {
	ctx := context.Background()
	_, _, _, secrets := openTestDB(t)

	t.Run("get missing secret", func(t *testing.T) {
		_, err := secrets.Get(ctx, "missing")
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})

	t.Run("save then get", func(t *testing.T) {
		require.NoError(t, secrets.Save(ctx, "anthropic", "deadbeef"))

		value, err := secrets.Get(ctx, "anthropic")
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", value)
	})

	t.Run("save replaces", func(t *testing.T) {
		require.NoError(t, secrets.Save(ctx, "anthropic", "cafebabe"))

		value, err := secrets.Get(ctx, "anthropic")
		require.NoError(t, err)
		assert.Equal(t, "cafebabe", value)
	})

	t.Run("names", func(t *testing.T) {
		require.NoError(t, secrets.Save(ctx, "other", "00ff"))

		names, err := secrets.Names(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"anthropic", "other"}, names)
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := secrets.Delete(ctx, "other")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = secrets.Delete(ctx, "other")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
