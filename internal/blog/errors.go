package blog

import (
	"errors"
	"fmt"
)

var (
	ErrMDConversion = errors.New("markdown conversion failed")
	errNoUploader   = errors.New("no media uploader configured")
	errEmptyURL     = errors.New("media host returned no url")
)

// ValidationError reports malformed or missing input. Details maps a field
// name to what is wrong with it.
type ValidationError struct {
	Message string
	Details map[string]string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an id that names no post.
type NotFoundError struct {
	ID  string
	Err error
}

func (e *NotFoundError) Error() string { return "Blog not found" }
func (e *NotFoundError) Unwrap() error { return e.Err }

// UploadError reports that the media host produced no URL for an image.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "Image upload failed" }
func (e *UploadError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
