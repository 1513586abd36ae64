package router

import (
	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/telemetry"
	"io/fs"
	"log/slog"
	"net/http"
	"path"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg         *config.Config
	Logger      *slog.Logger
	BlogHandler *handlers.BlogHandler
	Limiter     *middleware.IPRateLimiter
	Tracer      trace.Tracer
	Metrics     *telemetry.Metrics
	CSP         *middleware.CSP
	// Uploads holds the local media store; nil when images live elsewhere.
	Uploads fs.FS
}

func NewRouter(deps RouterDependencies) http.Handler {
	appMux := mux.NewRouter()
	appMux.NotFoundHandler = http.HandlerFunc(deps.BlogHandler.NotFound)
	appMux.MethodNotAllowedHandler = http.HandlerFunc(deps.BlogHandler.MethodNotAllowed)

	// api
	api := appMux.PathPrefix("/api/blogs").Subrouter()
	api.Handle("", deps.BlogHandler.HandleCreate()).Methods(http.MethodPost)
	api.Handle("", deps.BlogHandler.HandleList()).Methods(http.MethodGet)
	api.Handle("/{id}", deps.BlogHandler.HandleGet()).Methods(http.MethodGet)
	api.Handle("/{id}", deps.BlogHandler.HandleUpdate()).Methods(http.MethodPut)
	api.Handle("/{id}", deps.BlogHandler.HandleDelete()).Methods(http.MethodDelete)
	api.Handle("/{id}/html", deps.BlogHandler.HandleRender()).Methods(http.MethodGet)

	// media
	if deps.Uploads != nil {
		uploads := staticFiles(http.FS(deps.Uploads), deps.BlogHandler.NotFound)
		appMux.PathPrefix("/uploads/").
			Handler(http.StripPrefix("/uploads", uploads)).
			Methods(http.MethodGet, http.MethodHead)
	}

	// in-flight multipart files are never served
	appMux.PathPrefix("/temp/").HandlerFunc(deps.BlogHandler.NotFound)

	// static
	static := staticFiles(http.Dir(deps.Cfg.App.PublicDir), deps.BlogHandler.NotFound)
	appMux.PathPrefix("/").Handler(static).Methods(http.MethodGet, http.MethodHead)

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	if deps.Cfg.Metrics.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.CSP.Middleware(),
		middleware.CORS(deps.Cfg.CORS.Origin),
		deps.Limiter.Middleware(deps.Logger),
		middleware.Logger(deps.Logger, deps.Cfg.Proxy.Trusted),
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := mux.NewRouter()

	rootMux.Handle("/metrics", deps.BlogHandler.HandleMetrics()).Methods(http.MethodGet)

	// lightweight for docker keepalive
	rootMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	rootMux.PathPrefix("/").Handler(appHandler)

	return rootMux
}

// staticFiles serves root, answering missing files and directories without
// an index.html with notFound so every unknown route gets the same JSON
// envelope and nothing is ever listed.
func staticFiles(root http.FileSystem, notFound http.HandlerFunc) http.Handler {
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if !isServable(root, name) {
			notFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func isServable(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	stat, err := f.Stat()
	f.Close()
	if err != nil {
		return false
	}
	if !stat.IsDir() {
		return true
	}

	index, err := root.Open(path.Join(name, "index.html"))
	if err != nil {
		return false
	}
	index.Close()
	return true
}
