package sqlite

import (
	"blogapi/internal/storage"
	"blogapi/internal/storage/storetest"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestStoreImplementsInterface(t *testing.T) {
	t.Parallel()
	var _ storage.PostStore = (*Store)(nil)
}

func TestNewStore(t *testing.T) {
	t.Parallel()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	if store == nil {
		t.Fatal("Store is nil")
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestPostStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.PostStore {
		return setupTestStore(t)
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestReopenKeepsPosts(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	created, err := store.CreatePost(ctx, "Persisted", "Body", nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	store.Close()

	store, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	got, err := store.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPost after reopen failed: %v", err)
	}
	if got.Title != "Persisted" {
		t.Fatalf("want title %q, got %q", "Persisted", got.Title)
	}
}

func TestBlankFieldsViolateCheck(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	tests := []struct {
		name           string
		title, content string
	}{
		{"blank title", "   ", "content"},
		{"empty content", "title", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreatePost(context.Background(), tt.title, tt.content, nil)
			if !errors.Is(err, storage.ErrCheckViolation) {
				t.Fatalf("want ErrCheckViolation, got %v", err)
			}
		})
	}
}
