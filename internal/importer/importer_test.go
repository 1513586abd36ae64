package importer

import (
	"blogapi/internal/blog"
	"blogapi/internal/storage"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCreator struct {
	inputs []blog.CreateInput
	images map[string][]byte
	err    error
}

func (c *recordingCreator) Create(_ context.Context, in blog.CreateInput) (*storage.Post, error) {
	c.inputs = append(c.inputs, in)
	if in.ImagePath != "" {
		data, _ := os.ReadFile(in.ImagePath)
		c.images[in.Title] = data
		os.Remove(in.ImagePath)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &storage.Post{ID: "id-" + in.Title, Title: in.Title, Content: in.Content}, nil
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func newImporter(creator Creator, tempDir string) *Importer {
	return New(creator, tempDir, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestImportDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tempDir := filepath.Join(t.TempDir(), "temp")

	writeFile(t, dir, "a.md", "---\ntitle: Front matter title\nimage: cover.png\n---\nBody A\n")
	writeFile(t, dir, "b.md", "intro\n# Heading title\nBody B\n")
	writeFile(t, dir, "c.md", "---\ntitle: Hidden\ndraft: true\n---\nBody C\n")
	writeFile(t, dir, "cover.png", "pixels")
	writeFile(t, dir, "notes.txt", "ignored")

	creator := &recordingCreator{images: map[string][]byte{}}
	res, err := newImporter(creator, tempDir).ImportDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, Result{Imported: 2, Skipped: 1}, res)
	require.Len(t, creator.inputs, 2)

	assert.Equal(t, "Front matter title", creator.inputs[0].Title)
	assert.Equal(t, "Body A", strings.TrimSpace(creator.inputs[0].Content))
	assert.Equal(t, []byte("pixels"), creator.images["Front matter title"])
	assert.True(t, strings.HasPrefix(creator.inputs[0].ImagePath, tempDir), "image should be copied into the temp dir")

	assert.Equal(t, "Heading title", creator.inputs[1].Title)
	assert.Empty(t, creator.inputs[1].ImagePath)

	_, err = os.Stat(filepath.Join(dir, "cover.png"))
	assert.NoError(t, err, "source image must survive the import")
}

func TestImportDirCountsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "missing-image.md", "---\ntitle: T\nimage: nope.png\n---\nBody\n")
	writeFile(t, dir, "escape.md", "---\ntitle: T\nimage: ../../etc/passwd\n---\nBody\n")
	writeFile(t, dir, "rejected.md", "# Fine\nBody\n")

	creator := &recordingCreator{images: map[string][]byte{}, err: errors.New("store down")}
	res, err := newImporter(creator, t.TempDir()).ImportDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, Result{Failed: 3}, res)
	assert.Len(t, creator.inputs, 1, "files with unreadable images never reach the service")
}

func TestImportDirEmpty(t *testing.T) {
	t.Parallel()

	_, err := newImporter(&recordingCreator{}, t.TempDir()).ImportDir(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = newImporter(&recordingCreator{}, t.TempDir()).ImportDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFallbackTitleScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"first heading", "# Hello\n# Second", "Hello"},
		{"indented heading", "   #  Spaced  ", "Spaced"},
		{"sub heading ignored", "## Sub\ntext", "Untitled Post"},
		{"too deep", strings.Repeat("line\n", 25) + "# Late", "Untitled Post"},
		{"empty", "", "Untitled Post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := fallbackTitleScan(strings.NewReader(tt.input)); got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}
