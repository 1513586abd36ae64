// Package storetest holds the behaviour every storage.PostStore backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"blogapi/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a PostStore. newStore must return an empty store; the suite
// does not close it.
func Run(t *testing.T, newStore func(t *testing.T) storage.PostStore) {
	t.Run("create assigns id and timestamps", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		image := "https://cdn.example.com/a.png"
		post, err := store.CreatePost(ctx, "Title", "Content", &image)
		require.NoError(t, err)

		assert.NotEmpty(t, post.ID)
		assert.Equal(t, "Title", post.Title)
		assert.Equal(t, "Content", post.Content)
		require.NotNil(t, post.Image)
		assert.Equal(t, image, *post.Image)
		assert.False(t, post.CreatedAt.IsZero())
		assert.False(t, post.UpdatedAt.Before(post.CreatedAt))

		other, err := store.CreatePost(ctx, "Title", "Content", nil)
		require.NoError(t, err)
		assert.NotEqual(t, post.ID, other.ID)
		assert.Nil(t, other.Image)
	})

	t.Run("get returns stored post", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreatePost(ctx, "Hello", "World", nil)
		require.NoError(t, err)

		got, err := store.GetPost(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, "World", got.Content)
		assert.Nil(t, got.Image)
		assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("get unknown id", func(t *testing.T) {
		store := newStore(t)

		for _, id := range []string{"0190a3c4-7c1e-7000-8000-000000000000", "not-an-id", ""} {
			_, err := store.GetPost(context.Background(), id)
			assert.ErrorIs(t, err, storage.ErrNotFound, "id %q", id)
		}
	})

	t.Run("list empty", func(t *testing.T) {
		store := newStore(t)

		posts, err := store.ListPosts(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("list newest first", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var ids []string
		for _, title := range []string{"A", "B", "C"} {
			post, err := store.CreatePost(ctx, title, "body", nil)
			require.NoError(t, err)
			ids = append(ids, post.ID)
		}

		posts, err := store.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []string{"C", "B", "A"}, []string{posts[0].Title, posts[1].Title, posts[2].Title})
		assert.Equal(t, ids[2], posts[0].ID)
	})

	t.Run("update replaces fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreatePost(ctx, "Old", "Body", nil)
		require.NoError(t, err)

		image := "https://cdn.example.com/new.png"
		updated, err := store.UpdatePost(ctx, created.ID, ptr("New"), ptr("Body 2"), &image)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, "Body 2", updated.Content)
		require.NotNil(t, updated.Image)
		assert.Equal(t, image, *updated.Image)
		assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		got, err := store.GetPost(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
	})

	t.Run("update unknown id", func(t *testing.T) {
		store := newStore(t)

		_, err := store.UpdatePost(context.Background(), "0190a3c4-7c1e-7000-8000-000000000000", ptr("t"), ptr("c"), nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update keeps unsupplied fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		image := "https://cdn.example.com/keep.png"
		created, err := store.CreatePost(ctx, "Title", "Content", &image)
		require.NoError(t, err)

		updated, err := store.UpdatePost(ctx, created.ID, ptr("Title 2"), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "Title 2", updated.Title)
		assert.Equal(t, "Content", updated.Content)
		require.NotNil(t, updated.Image)
		assert.Equal(t, image, *updated.Image)

		updated, err = store.UpdatePost(ctx, created.ID, nil, ptr("Content 2"), nil)
		require.NoError(t, err)
		assert.Equal(t, "Title 2", updated.Title)
		assert.Equal(t, "Content 2", updated.Content)
		require.NotNil(t, updated.Image)
		assert.Equal(t, image, *updated.Image)

		updated, err = store.UpdatePost(ctx, created.ID, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "Title 2", updated.Title)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("concurrent updates of different fields both land", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreatePost(ctx, "T", "C", nil)
		require.NoError(t, err)

		const rounds = 10
		var wg sync.WaitGroup
		errs := make(chan error, 2*rounds)
		for i := range rounds {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := store.UpdatePost(ctx, created.ID, ptr(fmt.Sprintf("T%d", i)), nil, nil)
				errs <- err
			}()
			go func() {
				defer wg.Done()
				_, err := store.UpdatePost(ctx, created.ID, nil, ptr(fmt.Sprintf("C%d", i)), nil)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := store.GetPost(ctx, created.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "T", got.Title, "every title update was lost")
		assert.NotEqual(t, "C", got.Content, "every content update was lost")
	})

	t.Run("delete is permanent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreatePost(ctx, "Doomed", "Body", nil)
		require.NoError(t, err)

		require.NoError(t, store.DeletePost(ctx, created.ID))

		_, err = store.GetPost(ctx, created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = store.DeletePost(ctx, created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		posts, err := store.ListPosts(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func ptr(s string) *string { return &s }
