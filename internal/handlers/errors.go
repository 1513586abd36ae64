package handlers

import (
	"blogapi/internal/middleware"
	"net/http"
)

// InternalError handles 500 errors. The cause is logged, never sent.
func (h *BlogHandler) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.LoggerFrom(r.Context(), h.Logger).Error("500 internal server error", "err", err, "path", r.URL.Path)
	respondError(w, http.StatusInternalServerError, "Internal server error", nil)
}

// NotFound answers unknown routes.
func (h *BlogHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Logger.Warn("404 not found", "path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
	respondError(w, http.StatusNotFound, "Route not found", nil)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func (h *BlogHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Logger.Warn("405 method not allowed", "path", r.URL.Path, "method", r.Method)
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}
