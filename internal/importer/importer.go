// Package importer loads markdown files from disk into the blog.
package importer

import (
	"blogapi/internal/blog"
	"blogapi/internal/storage"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
)

const maxFileSize = 10 * 1024 * 1024

var ErrNoFiles = errors.New("no markdown files found")

// Creator is the part of the blog service the importer needs.
type Creator interface {
	Create(ctx context.Context, in blog.CreateInput) (*storage.Post, error)
}

type metaData struct {
	Title string `yaml:"title"`
	Image string `yaml:"image"` // relative to the markdown file
	Draft bool   `yaml:"draft"`
}

type Result struct {
	Imported int
	Skipped  int
	Failed   int
}

type Importer struct {
	creator Creator
	tempDir string
	logger  *slog.Logger
}

func New(creator Creator, tempDir string, logger *slog.Logger) *Importer {
	return &Importer{creator: creator, tempDir: tempDir, logger: logger}
}

// ImportDir creates one post per *.md file in dir. A file that fails is
// logged and counted; the run carries on with the next one.
func (im *Importer) ImportDir(ctx context.Context, dir string) (Result, error) {
	var res Result

	root, err := os.OpenRoot(dir)
	if err != nil {
		return res, fmt.Errorf("could not open directory %s: %w", dir, err)
	}
	defer root.Close()

	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return res, fmt.Errorf("failed to scan sources: %w", err)
	}
	if len(files) == 0 {
		return res, ErrNoFiles
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		post, err := im.importFile(ctx, root, filepath.Base(path))
		switch {
		case errors.Is(err, errDraft):
			res.Skipped++
			im.logger.Info("skipping draft", "file", path)
		case err != nil:
			res.Failed++
			im.logger.Error("import failed", "file", path, "err", err)
		default:
			res.Imported++
			im.logger.Info("imported post", "file", path, "id", post.ID, "title", post.Title)
		}
	}
	return res, nil
}

var errDraft = errors.New("draft")

func (im *Importer) importFile(ctx context.Context, root *os.Root, name string) (*storage.Post, error) {
	raw, err := readLimited(root, name)
	if err != nil {
		return nil, err
	}

	var meta metaData
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		// no front matter, the whole file is the post
		body = raw
		meta = metaData{}
	}
	if meta.Draft {
		return nil, errDraft
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = fallbackTitleScan(bytes.NewReader(body))
	}

	in := blog.CreateInput{Title: title, Content: string(body)}
	if meta.Image != "" {
		// the service removes whatever path it is given, so hand it a copy
		in.ImagePath, err = im.copyToTemp(root, filepath.Join(filepath.Dir(name), meta.Image))
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", meta.Image, err)
		}
	}

	return im.creator.Create(ctx, in)
}

func readLimited(root *os.Root, name string) ([]byte, error) {
	file, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stats, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stats.Size() > maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes", stats.Size())
	}
	return io.ReadAll(file)
}

func (im *Importer) copyToTemp(root *os.Root, name string) (string, error) {
	src, err := root.Open(filepath.Clean(name))
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(im.tempDir, 0o755); err != nil {
		return "", err
	}
	dst, err := os.CreateTemp(im.tempDir, "import-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func fallbackTitleScan(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	// if title is not within first 20 lines, it's likely not there at all
	linesScanned := 0
	for scanner.Scan() {
		linesScanned++
		if linesScanned > 20 {
			break
		}
		if title, found := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "# "); found {
			return strings.TrimSpace(title)
		}
	}
	return "Untitled Post"
}
