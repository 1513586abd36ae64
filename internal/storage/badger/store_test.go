package badger

import (
	"blogapi/internal/storage"
	"blogapi/internal/storage/storetest"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.PostStore {
		store, err := NewStore("")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestStorePersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)

	created, err := store.CreatePost(ctx, "On disk", "Body", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "On disk", got.Title)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}
