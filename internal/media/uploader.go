// Package media turns a local temporary file into a durable, publicly
// reachable URL.
package media

import (
	"blogapi/internal/config"
	"blogapi/internal/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotImage is returned for files whose content does not sniff as an image.
var ErrNotImage = errors.New("file is not an image")

// Uploader hands a local file to the media host. An empty URL is never
// returned together with a nil error.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// StoreUploader puts files into an ObjectStore under content-addressed keys,
// so uploading the same bytes twice yields the same URL.
type StoreUploader struct {
	store     storage.ObjectStore
	baseURL   string
	namespace uuid.UUID
	timeout   time.Duration
	optimiser *Optimiser
	logger    *slog.Logger
	tracer    trace.Tracer
}

var _ Uploader = (*StoreUploader)(nil)

func NewStoreUploader(store storage.ObjectStore, cfg config.MediaConfig, logger *slog.Logger) (*StoreUploader, error) {
	ns, err := uuid.FromString(cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("invalid media namespace: %w", err)
	}

	u := &StoreUploader{
		store:     store,
		baseURL:   cfg.PublicURL,
		namespace: ns,
		timeout:   cfg.UploadTimeout,
		logger:    logger,
		tracer:    otel.Tracer("blogapi/media"),
	}
	if cfg.Optimise {
		u.optimiser = NewOptimiser(cfg.MaxWidth)
	}
	return u, nil
}

func (u *StoreUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	ctx, span := u.tracer.Start(ctx, "Media.Upload")
	defer span.End()

	data, err := os.ReadFile(localPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return "", fmt.Errorf("could not read upload: %w", err)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		span.SetStatus(codes.Error, "not an image")
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}
	ext := extensionFor(contentType)

	if u.optimiser != nil {
		out, err := u.optimiser.Optimise(ctx, data)
		switch {
		case err == nil:
			data, contentType, ext = out, "image/webp", ".webp"
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, ErrImageTooLarge):
			span.SetStatus(codes.Error, "image too large")
			return "", err
		default:
			// formats the decoder does not know are stored as they came
			u.logger.Debug("image optimisation skipped", "err", err)
		}
	}

	key := ObjectKey(u.namespace, data, ext)
	span.SetAttributes(
		attribute.String("media.key", key),
		attribute.String("media.content_type", contentType),
		attribute.Int("media.size", len(data)),
	)

	if !u.store.Exists(ctx, key) {
		if err := u.store.Save(ctx, key, bytes.NewReader(data), contentType); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
			return "", fmt.Errorf("could not store %q: %w", key, err)
		}
	}

	link, err := url.JoinPath(u.baseURL, key)
	if err != nil {
		return "", fmt.Errorf("could not build media url: %w", err)
	}

	u.logger.Info("image uploaded", "key", key, "size", len(data))
	return link, nil
}
