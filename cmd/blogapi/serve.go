package main

import (
	"blogapi/internal/blog"
	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/media"
	"blogapi/internal/middleware"
	"blogapi/internal/router"
	"blogapi/internal/storage"
	"blogapi/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

type App struct {
	Server *http.Server
	Logger *slog.Logger
	Config *config.Config
	Store  storage.PostStore
}

func NewApp(cfg *config.Config, logger *slog.Logger, store storage.PostStore, handler http.Handler) *App {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server: server,
		Logger: logger,
		Config: cfg,
		Store:  store,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	// attempt clean shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

func newServeCommand() *cobra.Command {
	flags := newConfigFlags()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("application starting", "pid", os.Getpid(), "version", version)
	logger.Info("configuration loaded",
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db_driver", cfg.DB.Driver,
		"media_provider", cfg.Media.Provider,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
	)

	rootCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// no database, no server
	store, err := openPostStore(rootCtx, cfg.DB)
	if err != nil {
		return fmt.Errorf("could not open %s store: %w", cfg.DB.Driver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("could not close store", "err", err)
		}
	}()
	logger.Info("database connected", "driver", cfg.DB.Driver)

	tel, err := telemetry.Init(rootCtx, cfg.App.Name, version, cfg.App.Environment, cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		return fmt.Errorf("could not initialise telemetry: %w", err)
	}
	defer tel.Shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		return fmt.Errorf("could not create metrics: %w", err)
	}

	if cfg.Debug.Agent {
		if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
			logger.Warn("could not start gops agent", "err", err)
		} else {
			defer agent.Close()
		}
	}

	objects, uploads, err := openObjectStore(cfg)
	if err != nil {
		return fmt.Errorf("could not open media store: %w", err)
	}
	uploader, err := media.NewStoreUploader(objects, cfg.Media, logger)
	if err != nil {
		return err
	}

	service := blog.NewService(store, uploader, metrics, logger)
	blogHandler := handlers.NewBlogHandler(service, cfg.Media.TempDir, cfg.Media.MaxUpload, cfg.HTTP.MaxJSON, logger)
	limiter := middleware.NewIPRateLimiter(rootCtx, cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Proxy.Trusted, metrics)
	csp := middleware.NewCSP(cfg.App.Environment == "prod", mediaOrigin(cfg.Media.PublicURL))

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:         cfg,
		Logger:      logger,
		BlogHandler: blogHandler,
		Limiter:     limiter,
		Tracer:      tel.Tracer,
		Metrics:     metrics,
		CSP:         csp,
		Uploads:     uploads,
	})

	app := NewApp(cfg, logger, store, handler)
	if err := app.Run(rootCtx); err != nil {
		return err
	}

	logger.Info("application exited successfully")
	return nil
}
