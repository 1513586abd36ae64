// Package badger keeps posts in an embedded BadgerDB key-value store.
package badger

import (
	"blogapi/internal/storage"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// postKeyPrefix namespaces post records. Keys are post:<uuid>.
const postKeyPrefix = "post:"

type Store struct {
	db *badger.DB
}

var _ storage.PostStore = (*Store)(nil)

// NewStore opens the database directory at path. An empty path keeps
// everything in memory.
func NewStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cannot open badger at %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func postKey(id string) []byte {
	return []byte(postKeyPrefix + id)
}

func getPost(txn *badger.Txn, id string) (*storage.Post, error) {
	if id == "" {
		return nil, storage.ErrNotFound
	}

	item, err := txn.Get(postKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var post storage.Post
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &post)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal post: %w", err)
	}
	return &post, nil
}

func setPost(txn *badger.Txn, post *storage.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}
	return txn.Set(postKey(post.ID), data)
}

func (s *Store) CreatePost(_ context.Context, title, content string, image *string) (*storage.Post, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("could not generate post id: %w", err)
	}

	now := time.Now().UTC()
	post := &storage.Post{
		ID:        id.String(),
		Title:     title,
		Content:   content,
		Image:     image,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return setPost(txn, post)
	})
	if err != nil {
		return nil, fmt.Errorf("could not create post: %w", err)
	}
	return post, nil
}

func (s *Store) GetPost(_ context.Context, id string) (*storage.Post, error) {
	var post *storage.Post
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cannot find post %q: %w", id, err)
	}
	return post, nil
}

func (s *Store) ListPosts(_ context.Context) ([]*storage.Post, error) {
	posts := []*storage.Post{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(postKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post storage.Post
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	slices.SortFunc(posts, func(a, b *storage.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return posts, nil
}

func (s *Store) UpdatePost(_ context.Context, id string, title, content, image *string) (*storage.Post, error) {
	var post *storage.Post
	err := s.update(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		if err != nil {
			return err
		}

		if title != nil {
			post.Title = *title
		}
		if content != nil {
			post.Content = *content
		}
		if image != nil {
			post.Image = image
		}
		if now := time.Now().UTC(); now.After(post.CreatedAt) {
			post.UpdatedAt = now
		} else {
			post.UpdatedAt = post.CreatedAt
		}
		return setPost(txn, post)
	})
	if err != nil {
		return nil, fmt.Errorf("could not update post %q: %w", id, err)
	}
	return post, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	err := s.update(func(txn *badger.Txn) error {
		if _, err := getPost(txn, id); err != nil {
			return err
		}
		return txn.Delete(postKey(id))
	})
	if err != nil {
		return fmt.Errorf("could not delete post %q: %w", id, err)
	}
	return nil
}

const maxConflictRetries = 50

// update runs fn in a read-write transaction, retrying when a concurrent
// transaction committed a write to a key fn read.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
