// Package blog holds the rules for creating, reading, updating and deleting
// posts, including the optional image upload that goes with them.
package blog

import (
	"blogapi/internal/media"
	"blogapi/internal/storage"
	"blogapi/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Service struct {
	store    storage.PostStore
	uploader media.Uploader
	renderer *Renderer
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewService wires the service. uploader may be nil, in which case any
// request carrying an image fails with an UploadError.
func NewService(store storage.PostStore, uploader media.Uploader, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		renderer: NewRenderer(),
		metrics:  metrics,
		logger:   logger,
		tracer:   otel.Tracer("blogapi/blog"),
	}
}

// Create validates in, uploads its image if any and stores the new post.
// The temporary image file is removed whatever the outcome.
func (s *Service) Create(ctx context.Context, in CreateInput) (*storage.Post, error) {
	ctx, span := s.tracer.Start(ctx, "Blog.Create")
	defer span.End()
	defer s.cleanup(ctx, in.ImagePath)

	if err := in.Validate(); err != nil {
		return nil, s.fail(span, err)
	}

	var image *string
	if in.ImagePath != "" {
		link, err := s.upload(ctx, in.ImagePath)
		if err != nil {
			return nil, s.fail(span, err)
		}
		image = &link
	}

	post, err := s.store.CreatePost(ctx, in.Title, in.Content, image)
	if err != nil {
		return nil, s.fail(span, s.storeError(err, ""))
	}

	span.SetAttributes(attribute.String("post.id", post.ID))
	s.metrics.PostsCreatedTotal.Add(ctx, 1)
	s.logger.Info("post created", "id", post.ID, "with_image", image != nil)
	return post, nil
}

// ListAll returns every post, newest first. The slice is never nil.
func (s *Service) ListAll(ctx context.Context) ([]*storage.Post, error) {
	ctx, span := s.tracer.Start(ctx, "Blog.ListAll")
	defer span.End()

	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, s.fail(span, s.storeError(err, ""))
	}
	if posts == nil {
		posts = []*storage.Post{}
	}

	span.SetAttributes(attribute.Int("post.count", len(posts)))
	return posts, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*storage.Post, error) {
	ctx, span := s.tracer.Start(ctx, "Blog.GetByID", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, s.fail(span, s.storeError(err, id))
	}
	return post, nil
}

// Update applies the supplied fields of in to post id. Existence is checked
// before validation, and the temporary image file is removed whatever the
// outcome.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*storage.Post, error) {
	ctx, span := s.tracer.Start(ctx, "Blog.Update", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()
	defer s.cleanup(ctx, in.ImagePath)

	if _, err := s.store.GetPost(ctx, id); err != nil {
		return nil, s.fail(span, s.storeError(err, id))
	}

	if err := in.Validate(); err != nil {
		return nil, s.fail(span, err)
	}

	var image *string
	if in.ImagePath != "" {
		link, err := s.upload(ctx, in.ImagePath)
		if err != nil {
			return nil, s.fail(span, err)
		}
		image = &link
	}

	// only the supplied fields are written; the store merges them atomically
	post, err := s.store.UpdatePost(ctx, id, in.Title, in.Content, image)
	if err != nil {
		return nil, s.fail(span, s.storeError(err, id))
	}

	s.metrics.PostsUpdatedTotal.Add(ctx, 1)
	s.logger.Info("post updated", "id", id, "new_image", in.ImagePath != "")
	return post, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "Blog.Delete", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	if err := s.store.DeletePost(ctx, id); err != nil {
		return s.fail(span, s.storeError(err, id))
	}

	s.metrics.PostsDeletedTotal.Add(ctx, 1)
	s.logger.Info("post deleted", "id", id)
	return nil
}

// RenderHTML returns the content of post id rendered from Markdown.
func (s *Service) RenderHTML(ctx context.Context, id string) ([]byte, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_, span := s.tracer.Start(ctx, "Blog.RenderHTML.CPU")
	defer span.End()

	html, err := s.renderer.Render([]byte(post.Content))
	if err != nil {
		return nil, s.fail(span, err)
	}
	return html, nil
}

// upload makes exactly one attempt; there is no retry.
func (s *Service) upload(ctx context.Context, path string) (string, error) {
	if s.uploader == nil {
		s.metrics.UploadFailuresTotal.Add(ctx, 1)
		return "", &UploadError{Err: errNoUploader}
	}

	start := time.Now()
	link, err := s.uploader.Upload(ctx, path)
	s.metrics.UploadDuration.Record(ctx, time.Since(start).Seconds())

	if err == nil && link == "" {
		err = errEmptyURL
	}
	if err != nil {
		s.metrics.UploadFailuresTotal.Add(ctx, 1)
		s.logger.Error("image upload failed", "err", err)
		return "", &UploadError{Err: err}
	}

	s.metrics.UploadsTotal.Add(ctx, 1)
	return link, nil
}

// cleanup removes a temporary upload. Failures are logged, never returned.
func (s *Service) cleanup(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.metrics.CleanupFailuresTotal.Add(ctx, 1)
		s.logger.Warn("could not remove temporary upload", "path", path, "err", err)
	}
}

func (s *Service) storeError(err error, id string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &NotFoundError{ID: id, Err: err}
	case errors.Is(err, storage.ErrCheckViolation):
		e := invalid("Title and content must be non-empty strings")
		e.Err = err
		return e
	default:
		return fmt.Errorf("post store: %w", err)
	}
}

// fail marks the span. Client errors are recorded as events only.
func (s *Service) fail(span trace.Span, err error) error {
	var (
		verr *ValidationError
		nerr *NotFoundError
	)
	span.RecordError(err)
	if !errors.As(err, &verr) && !errors.As(err, &nerr) {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
