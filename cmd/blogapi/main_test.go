package main

import (
	"blogapi/internal/config"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "blogapi dev\n", out.String())
}

func TestMigrateCommandSQLite(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("DB_DRIVER", config.DriverSQLite)
	t.Setenv("DB_URL", dataDir)
	t.Setenv("DB_NAME", "migrated")

	root := newRootCommand()
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.Execute())

	_, err := os.Stat(filepath.Join(dataDir, "migrated.db"))
	assert.NoError(t, err)
}

func TestImportCommand(t *testing.T) {
	base := t.TempDir()
	sources := filepath.Join(base, "sources")
	require.NoError(t, os.MkdirAll(sources, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sources, "hello.md"), []byte("# Hello\nworld\n"), 0o644))

	t.Setenv("DB_DRIVER", config.DriverBadger)
	t.Setenv("DB_URL", filepath.Join(base, "db"))
	t.Setenv("MEDIA_LOCAL_DIR", filepath.Join(base, "uploads"))
	t.Setenv("MEDIA_TEMP_DIR", filepath.Join(base, "temp"))

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"import", "--dir", sources})
	require.NoError(t, root.Execute())

	assert.Equal(t, "imported 1, skipped 0, failed 0\n", out.String())
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")

	root := newRootCommand()
	root.SetArgs([]string{"migrate"})
	err := root.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "DB_DRIVER"), err.Error())
}

func TestOpenPostStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DBConfig
		wantErr bool
	}{
		{"sqlite file", config.DBConfig{Driver: config.DriverSQLite, URL: filepath.Join(t.TempDir(), "nested"), Name: "blog"}, false},
		{"sqlite memory", config.DBConfig{Driver: config.DriverSQLite, URL: ":memory:", Name: "blog"}, false},
		{"badger memory", config.DBConfig{Driver: config.DriverBadger, Name: "blog"}, false},
		{"unknown", config.DBConfig{Driver: "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := openPostStore(context.Background(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}
}

func TestOpenObjectStoreLocal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Media.LocalDir = t.TempDir()

	store, files, err := openObjectStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NotNil(t, files, "local media is served by the API")

	cfg.Media.Provider = "ftp"
	_, _, err = openObjectStore(cfg)
	assert.Error(t, err)
}

func TestMediaOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:3000/uploads", "http://localhost:3000"},
		{"https://cdn.example.com/media/", "https://cdn.example.com"},
		{"/uploads", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := mediaOrigin(tt.in); got != tt.want {
			t.Errorf("mediaOrigin(%q): want %q, got %q", tt.in, tt.want, got)
		}
	}
}
