package sqlite

import (
	"blogapi/internal/storage"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const postColumns = `id, title, content, image, created_at, updated_at`

// postRow mirrors the posts table. Timestamps are unix nanoseconds so that
// ORDER BY created_at sorts numerically.
type postRow struct {
	ID        string  `db:"id"`
	Title     string  `db:"title"`
	Content   string  `db:"content"`
	Image     *string `db:"image"`
	CreatedAt int64   `db:"created_at"`
	UpdatedAt int64   `db:"updated_at"`
}

func (r *postRow) toPost() *storage.Post {
	return &storage.Post{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Image:     r.Image,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}
}

func (s *Store) CreatePost(ctx context.Context, title, content string, image *string) (*storage.Post, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("could not generate post id: %w", err)
	}
	now := time.Now().UnixNano()

	query := `INSERT INTO posts (id, title, content, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING ` + postColumns

	var row postRow
	if err := s.db.GetContext(ctx, &row, query, id.String(), title, content, image, now, now); err != nil {
		return nil, fmt.Errorf("could not create post: %w", mapSqlError(err))
	}

	return row.toPost(), nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*storage.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ? LIMIT 1`

	var row postRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("cannot find post %q: %w", id, mapSqlError(err))
	}

	return row.toPost(), nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*storage.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, seq DESC`

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapSqlError(err))
	}

	posts := make([]*storage.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].toPost())
	}
	return posts, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, title, content, image *string) (*storage.Post, error) {
	query := `UPDATE posts
		SET title = coalesce(?, title),
			content = coalesce(?, content),
			image = coalesce(?, image),
			updated_at = max(?, created_at)
		WHERE id = ?
		RETURNING ` + postColumns

	var row postRow
	if err := s.db.GetContext(ctx, &row, query, title, content, image, time.Now().UnixNano(), id); err != nil {
		return nil, fmt.Errorf("could not update post %q: %w", id, mapSqlError(err))
	}

	return row.toPost(), nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete post %q: %w", id, mapSqlError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("could not delete post %q: %w", id, storage.ErrNotFound)
	}
	return nil
}

func mapSqlError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	// sqlite specific errors
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {

		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return storage.ErrUniqueViolation

		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return storage.ErrCheckViolation
		}
	}
	return err
}
