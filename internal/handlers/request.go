package handlers

import (
	"blogapi/internal/blog"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// postForm is what a create or update request carries. A nil field was not
// supplied. ImagePath names a temporary file the caller must hand on or remove.
type postForm struct {
	Title     *string
	Content   *string
	ImagePath string
}

func (f *postForm) discard() {
	if f.ImagePath != "" {
		os.Remove(f.ImagePath)
		f.ImagePath = ""
	}
}

// parsePostForm reads a JSON, urlencoded or multipart body. Malformed input
// of any kind is reported as a *blog.ValidationError.
func (h *BlogHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (postForm, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		if r.ContentLength > 0 {
			return postForm{}, &blog.ValidationError{Message: "Content-Type header is required"}
		}
		// DELETE-style empty body
		return postForm{}, nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return postForm{}, &blog.ValidationError{Message: "Malformed Content-Type header", Err: err}
	}

	switch mediaType {
	case "application/json":
		return h.parseJSON(w, r)
	case "application/x-www-form-urlencoded":
		return h.parseURLEncoded(w, r)
	case "multipart/form-data":
		return h.parseMultipart(w, r)
	default:
		return postForm{}, &blog.ValidationError{Message: fmt.Sprintf("Unsupported content type %q", mediaType)}
	}
}

func (h *BlogHandler) parseJSON(w http.ResponseWriter, r *http.Request) (postForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxJSON)

	var body struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return postForm{}, bodyError(err)
	}

	return postForm{Title: body.Title, Content: body.Content}, nil
}

func (h *BlogHandler) parseURLEncoded(w http.ResponseWriter, r *http.Request) (postForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxJSON)
	if err := r.ParseForm(); err != nil {
		return postForm{}, bodyError(err)
	}

	var form postForm
	if r.PostForm.Has("title") {
		v := r.PostForm.Get("title")
		form.Title = &v
	}
	if r.PostForm.Has("content") {
		v := r.PostForm.Get("content")
		form.Content = &v
	}
	return form, nil
}

// parseMultipart streams the body: text fields are read into memory, the
// image part goes straight to a temporary file.
func (h *BlogHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (form postForm, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)

	mr, err := r.MultipartReader()
	if err != nil {
		return postForm{}, bodyError(err)
	}

	defer func() {
		if err != nil {
			form.discard()
		}
	}()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return form, bodyError(err)
		}

		switch name := part.FormName(); {
		case name == "image" && part.FileName() != "":
			if form.ImagePath != "" {
				part.Close()
				return form, &blog.ValidationError{
					Message: "Only one image may be uploaded",
					Details: map[string]string{"image": "only one file is accepted"},
				}
			}
			form.ImagePath, err = h.saveTemp(part, part.FileName())
			if err != nil {
				part.Close()
				return form, err
			}

		case name == "title" || name == "content":
			value, err := readField(part, h.MaxJSON)
			if err != nil {
				part.Close()
				return form, err
			}
			if name == "title" {
				form.Title = &value
			} else {
				form.Content = &value
			}
		}
		part.Close()
	}

	return form, nil
}

func readField(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", bodyError(err)
	}
	if int64(len(data)) > limit {
		return "", &blog.ValidationError{Message: "Request body too large"}
	}
	return string(data), nil
}

// saveTemp copies an uploaded file into the temp dir, keeping a sane
// extension so the uploader can name the object.
func (h *BlogHandler) saveTemp(r io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create temp dir: %w", err)
	}

	f, err := os.CreateTemp(h.TempDir, "upload-*"+safeExt(filename))
	if err != nil {
		return "", fmt.Errorf("could not create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", bodyError(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("could not write temp file: %w", err)
	}
	return f.Name(), nil
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

// bodyError turns a decoding failure into a ValidationError.
func bodyError(err error) error {
	var (
		maxErr  *http.MaxBytesError
		typeErr *json.UnmarshalTypeError
		syntax  *json.SyntaxError
	)

	switch {
	case errors.As(err, &maxErr):
		return &blog.ValidationError{Message: "Request body too large", Err: err}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		msg := fmt.Sprintf("%s must be a non-empty string", typeErr.Field)
		return &blog.ValidationError{
			Message: strings.ToUpper(msg[:1]) + msg[1:],
			Details: map[string]string{typeErr.Field: msg},
			Err:     err,
		}
	case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
		return &blog.ValidationError{Message: "Malformed JSON body", Err: err}
	default:
		return &blog.ValidationError{Message: "Malformed request body", Err: err}
	}
}
