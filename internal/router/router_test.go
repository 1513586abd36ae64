package router

import (
	"blogapi/internal/blog"
	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/storage/sqlite"
	"blogapi/internal/telemetry"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<h1>blog</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(publicDir, "temp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "temp", "upload-1.png"), []byte("partial"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(publicDir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "docs", "guide.txt"), []byte("guide"), 0o644))

	uploadsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "a.png"), []byte("pixels"), 0o644))

	cfg := config.DefaultConfig()
	cfg.App.PublicDir = publicDir
	cfg.App.Environment = "dev"

	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	service := blog.NewService(store, nil, metrics, logger)
	h := handlers.NewBlogHandler(service, t.TempDir(), cfg.Media.MaxUpload, cfg.HTTP.MaxJSON, logger)

	srv := httptest.NewServer(NewRouter(RouterDependencies{
		Cfg:         cfg,
		Logger:      logger,
		BlogHandler: h,
		Limiter:     middleware.NewIPRateLimiter(ctx, 1000, 1000, false, metrics),
		Tracer:      tracenoop.NewTracerProvider().Tracer("test"),
		Metrics:     metrics,
		CSP:         middleware.NewCSP(false),
		Uploads:     os.DirFS(uploadsDir),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, envelope) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func TestBlogLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, env := do(t, srv, http.MethodPost, "/api/blogs", `{"title":"Hello","content":"# World"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Blog created successfully", env.Message)

	var created struct {
		ID    string  `json:"id"`
		Image *string `json:"image"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.ID)
	assert.Nil(t, created.Image)

	resp, env = do(t, srv, http.MethodGet, "/api/blogs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), created.ID)

	resp, env = do(t, srv, http.MethodPut, "/api/blogs/"+created.ID, `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"Renamed"`)
	assert.Contains(t, string(env.Data), `"# World"`)

	resp, _ = do(t, srv, http.MethodGet, "/api/blogs/"+created.ID+"/html", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	resp, env = do(t, srv, http.MethodDelete, "/api/blogs/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", string(env.Data))

	resp, env = do(t, srv, http.MethodGet, "/api/blogs/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Blog not found", env.Message)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantMsg    string
	}{
		{"create without fields", http.MethodPost, "/api/blogs", http.StatusBadRequest, "Missing required fields: title or content"},
		{"unknown api route", http.MethodGet, "/api/nope", http.StatusNotFound, "Route not found"},
		{"wrong method", http.MethodPatch, "/api/blogs", http.StatusMethodNotAllowed, "Method not allowed"},
		{"delete unknown", http.MethodDelete, "/api/blogs/0190a3c4-7c1e-7000-8000-000000000000", http.StatusNotFound, "Blog not found"},
		{"temp files hidden", http.MethodGet, "/temp/upload-1.png", http.StatusNotFound, "Route not found"},
		{"missing static file", http.MethodGet, "/missing.css", http.StatusNotFound, "Route not found"},
		{"public directory not listed", http.MethodGet, "/docs/", http.StatusNotFound, "Route not found"},
		{"uploads not listed", http.MethodGet, "/uploads/", http.StatusNotFound, "Route not found"},
		{"missing upload", http.MethodGet, "/uploads/nope.png", http.StatusNotFound, "Route not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := ""
			if tt.method == http.MethodPost {
				body = `{}`
			}
			resp, env := do(t, srv, tt.method, tt.path, body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantStatus, env.StatusCode)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestStaticAndInfra(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz", "/healthz", http.StatusOK, "OK"},
		{"metrics", "/metrics", http.StatusOK, "goroutines"},
		{"static index", "/", http.StatusOK, "<h1>blog</h1>"},
		{"uploaded media", "/uploads/a.png", http.StatusOK, "pixels"},
		{"file in public subdirectory", "/docs/guide.txt", http.StatusOK, "guide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.Client().Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, string(body), tt.wantBody)
		})
	}
}

func TestPreflightAndHeaders(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/blogs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPut)
}
