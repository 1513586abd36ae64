package handlers

import (
	"blogapi/internal/blog"
	"blogapi/internal/storage"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// BlogService is what the HTTP layer needs from the blog package.
type BlogService interface {
	Create(ctx context.Context, in blog.CreateInput) (*storage.Post, error)
	ListAll(ctx context.Context) ([]*storage.Post, error)
	GetByID(ctx context.Context, id string) (*storage.Post, error)
	Update(ctx context.Context, id string, in blog.UpdateInput) (*storage.Post, error)
	Delete(ctx context.Context, id string) error
	RenderHTML(ctx context.Context, id string) ([]byte, error)
}

var _ BlogService = (*blog.Service)(nil)

// BlogHandler holds the state
type BlogHandler struct {
	Service   BlogService
	Logger    *slog.Logger
	TempDir   string // where multipart images are spooled
	MaxUpload int64  // multipart body limit
	MaxJSON   int64  // JSON and urlencoded body limit
	started   time.Time
}

// NewBlogHandler creates the controller
func NewBlogHandler(service BlogService, tempDir string, maxUpload, maxJSON int64, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		Service:   service,
		Logger:    logger,
		TempDir:   tempDir,
		MaxUpload: maxUpload,
		MaxJSON:   maxJSON,
		started:   time.Now(),
	}
}

func (h *BlogHandler) HandleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form, err := h.parsePostForm(w, r)
		if err != nil {
			h.writeError(w, r, err, http.StatusBadRequest)
			return
		}

		// the service owns form.ImagePath from here on
		post, err := h.Service.Create(r.Context(), blog.CreateInput{
			Title:     deref(form.Title),
			Content:   deref(form.Content),
			ImagePath: form.ImagePath,
		})
		if err != nil {
			h.writeError(w, r, err, http.StatusBadRequest)
			return
		}

		respond(w, http.StatusCreated, "Blog created successfully", post)
	})
}

func (h *BlogHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.Service.ListAll(r.Context())
		if err != nil {
			h.writeError(w, r, err, http.StatusInternalServerError)
			return
		}

		respond(w, http.StatusOK, "Blogs fetched successfully", posts)
	})
}

func (h *BlogHandler) HandleGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post, err := h.Service.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			h.writeError(w, r, err, http.StatusInternalServerError)
			return
		}

		respond(w, http.StatusOK, "Blog fetched successfully", post)
	})
}

func (h *BlogHandler) HandleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form, err := h.parsePostForm(w, r)
		if err != nil {
			h.writeError(w, r, err, http.StatusInternalServerError)
			return
		}

		post, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], blog.UpdateInput{
			Title:     form.Title,
			Content:   form.Content,
			ImagePath: form.ImagePath,
		})
		if err != nil {
			h.writeError(w, r, err, http.StatusInternalServerError)
			return
		}

		respond(w, http.StatusOK, "Blog updated successfully", post)
	})
}

func (h *BlogHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			h.writeError(w, r, err, http.StatusInternalServerError)
			return
		}

		respond(w, http.StatusOK, "Blog deleted successfully", nil)
	})
}

// HandleRender serves the post content as an HTML fragment.
func (h *BlogHandler) HandleRender() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html, err := h.Service.RenderHTML(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			h.writeError(w, r, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(html)
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
