package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore keeps objects as files below basePath. It backs the media
// uploader when no bucket is configured and is served under /uploads/.
type LocalStore struct {
	basePath string
}

var _ ObjectStore = (*LocalStore)(nil)

func NewLocalStorage(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create media directory %q: %w", basePath, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.OpenInRoot(l.basePath, key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Exists takes a key and returns true if the file exists and can be opened
func (l *LocalStore) Exists(_ context.Context, key string) bool {
	key = filepath.Clean(key)

	f, err := os.OpenInRoot(l.basePath, key)
	if err != nil {
		return false
	}

	defer f.Close() // overkill to consider errors if only checking existence
	return true
}

// Save writes body to key atomically: readers never observe a partial file.
// Each call writes its own temporary file, so concurrent saves of the same
// key do not interfere.
func (l *LocalStore) Save(_ context.Context, key string, body io.ReadSeeker, _ string) error {
	root, err := os.OpenRoot(l.basePath)
	if err != nil {
		return fmt.Errorf("could not open media directory: %w", err)
	}
	defer root.Close()

	tmpName := key + "." + uuid.NewString() + ".partial"
	f, err := root.Create(tmpName)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", key, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		root.Remove(tmpName)
		return fmt.Errorf("could not write %q: %w", key, err)
	}
	if err := f.Close(); err != nil {
		root.Remove(tmpName)
		return fmt.Errorf("could not write %q: %w", key, err)
	}

	if err := root.Rename(tmpName, key); err != nil {
		root.Remove(tmpName)
		// keys are content addressed: whoever got there first wrote the same bytes
		if _, statErr := root.Stat(key); statErr == nil {
			return nil
		}
		return fmt.Errorf("could not publish %q: %w", key, err)
	}
	return nil
}

func (l *LocalStore) Delete(_ context.Context, key string) error {
	root, err := os.OpenRoot(l.basePath)
	if err != nil {
		return fmt.Errorf("could not open media directory: %w", err)
	}
	defer root.Close()

	if err := root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// FS exposes the stored objects read-only.
func (l *LocalStore) FS() fs.FS {
	return os.DirFS(l.basePath)
}
