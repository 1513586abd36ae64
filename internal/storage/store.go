package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// PostStore persists blog posts. Implementations assign ids and timestamps.
type PostStore interface {
	CreatePost(ctx context.Context, title, content string, image *string) (*Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]*Post, error)
	// UpdatePost sets the non-nil fields only, in one atomic step, so
	// concurrent partial updates of different fields never undo each other.
	UpdatePost(ctx context.Context, id string, title, content, image *string) (*Post, error)
	DeletePost(ctx context.Context, id string) error

	Close() error
}

// ObjectStore holds binary media under flat string keys.
type ObjectStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	Save(ctx context.Context, key string, body io.ReadSeeker, contentType string) error
	Delete(ctx context.Context, key string) error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

type Post struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Image     *string   `db:"image" json:"image"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
