package postgres

import (
	"blogapi/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ storage.PostStore = (*Store)(nil)

const postColumns = `id, title, content, image, created_at, updated_at`

func scanPost(row pgx.Row) (*storage.Post, error) {
	var (
		id   pgtype.UUID
		post storage.Post
	)
	if err := row.Scan(&id, &post.Title, &post.Content, &post.Image, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	post.ID = uuid.UUID(id.Bytes).String()
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()
	return &post, nil
}

// parseID turns a path id into a query parameter. Anything that is not a
// UUID cannot name a row.
func parseID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, storage.ErrNotFound
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func (s *Store) CreatePost(ctx context.Context, title, content string, image *string) (*storage.Post, error) {
	query := `INSERT INTO posts (title, content, image)
		VALUES ($1, $2, $3)
		RETURNING ` + postColumns

	post, err := scanPost(s.pool.QueryRow(ctx, query, title, content, image))
	if err != nil {
		return nil, fmt.Errorf("could not create post: %w", mapPgError(err))
	}
	return post, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*storage.Post, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, fmt.Errorf("cannot find post %q: %w", id, err)
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(s.pool.QueryRow(ctx, query, pid))
	if err != nil {
		return nil, fmt.Errorf("cannot find post %q: %w", id, mapPgError(err))
	}
	return post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*storage.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, seq DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapPgError(err))
	}
	defer rows.Close()

	posts := []*storage.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapPgError(err))
	}
	return posts, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, title, content, image *string) (*storage.Post, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, fmt.Errorf("could not update post %q: %w", id, err)
	}

	query := `UPDATE posts
		SET title = coalesce($2, title),
			content = coalesce($3, content),
			image = coalesce($4, image),
			updated_at = greatest($5, created_at)
		WHERE id = $1
		RETURNING ` + postColumns

	post, err := scanPost(s.pool.QueryRow(ctx, query, pid, title, content, image, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("could not update post %q: %w", id, mapPgError(err))
	}
	return post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return fmt.Errorf("could not delete post %q: %w", id, err)
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, pid)
	if err != nil {
		return fmt.Errorf("could not delete post %q: %w", id, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("could not delete post %q: %w", id, storage.ErrNotFound)
	}
	return nil
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return storage.ErrUniqueViolation
		case "23514":
			return storage.ErrCheckViolation
		}
	}
	return err
}
