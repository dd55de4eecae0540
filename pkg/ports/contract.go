package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunVariableStoreContract runs a suite of tests to verify that a VariableStore
// implementation adheres to the defined interface contract.
func RunVariableStoreContract(t *testing.T, store VariableStore) {
	ctx := context.Background()
	userID := time.Now().UnixNano() % 1_000_000_000

	t.Run("Save and Load", func(t *testing.T) {
		vars := map[string]string{"name": "Ann", "colours": "Red, Blue"}

		err := store.Save(ctx, userID, vars)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, vars, loaded)
	})

	t.Run("Isolation", func(t *testing.T) {
		vars := map[string]string{"a": "1"}
		require.NoError(t, store.Save(ctx, userID, vars))
		vars["a"] = "mutated"

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "1", loaded["a"])

		loaded["a"] = "mutated again"
		again, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "1", again["a"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, userID+1)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, userID, map[string]string{"x": "y"}))

		err := store.Delete(ctx, userID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound, "Load after Delete should return ErrUserNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + 10
		id2 := userID + 11
		_ = store.Save(ctx, id1, map[string]string{"k": "v"})
		_ = store.Save(ctx, id2, map[string]string{"k": "v"})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}

// RunArtifactCacheContract verifies the behaviour shared by ArtifactCache implementations.
func RunArtifactCacheContract(t *testing.T, cache ArtifactCache) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000")

	t.Run("Miss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, key+"-missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte("package main")))
		data, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "package main", string(data))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte("v2")))
		data, _, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})
}
