package handlers

import (
	"blogapi/internal/blog"
	"blogapi/internal/middleware"
	"encoding/json"
	"errors"
	"net/http"
)

// envelope is the body of every successful API response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// errorEnvelope is the body of every failed API response.
type errorEnvelope struct {
	StatusCode int               `json:"statusCode"`
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

func respondError(w http.ResponseWriter, status int, message string, details map[string]string) {
	writeJSON(w, status, errorEnvelope{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     details,
	})
}

// writeError maps service errors onto status codes. uploadStatus differs
// between create (400) and update (500).
func (h *BlogHandler) writeError(w http.ResponseWriter, r *http.Request, err error, uploadStatus int) {
	var (
		verr *blog.ValidationError
		nerr *blog.NotFoundError
		uerr *blog.UploadError
	)
	logger := middleware.LoggerFrom(r.Context(), h.Logger)

	switch {
	case errors.As(err, &verr):
		logger.Debug("400 validation failed", "path", r.URL.Path, "err", err)
		respondError(w, http.StatusBadRequest, verr.Message, verr.Details)
	case errors.As(err, &nerr):
		logger.Warn("404 blog not found", "id", nerr.ID, "path", r.URL.Path)
		respondError(w, http.StatusNotFound, nerr.Error(), nil)
	case errors.As(err, &uerr):
		logger.Error("image upload failed", "err", uerr.Unwrap(), "path", r.URL.Path)
		respondError(w, uploadStatus, uerr.Error(), nil)
	default:
		h.InternalError(w, r, err)
	}
}
