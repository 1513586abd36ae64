package main

import (
	"blogapi/internal/config"
	"blogapi/internal/storage"
	badgerstore "blogapi/internal/storage/badger"
	"blogapi/internal/storage/postgres"
	"blogapi/internal/storage/sqlite"
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// openPostStore opens the configured database. SQL backends are migrated
// before they are returned.
func openPostStore(ctx context.Context, cfg config.DBConfig) (storage.PostStore, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		if location != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
				return nil, fmt.Errorf("could not create database directory: %w", err)
			}
		}
		return sqlite.NewStore(location)
	case config.DriverPostgres:
		return postgres.NewStore(ctx, location)
	case config.DriverBadger:
		return badgerstore.NewStore(location)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}

// openObjectStore returns the media store and, for the local provider, the
// files served under /uploads.
func openObjectStore(cfg *config.Config) (storage.ObjectStore, fs.FS, error) {
	switch cfg.Media.Provider {
	case config.MediaLocal:
		store, err := storage.NewLocalStorage(cfg.Media.LocalDir)
		if err != nil {
			return nil, nil, err
		}
		return store, store.FS(), nil
	case config.MediaS3:
		store, err := storage.NewS3Store(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown MEDIA_PROVIDER %q", cfg.Media.Provider)
	}
}

// mediaOrigin is the scheme and host images are served from, for the CSP.
func mediaOrigin(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
