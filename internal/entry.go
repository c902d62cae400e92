// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/favshelf/internal/api"
	"github.com/starford/favshelf/internal/catalog"
	"github.com/starford/favshelf/internal/metrics"
	"github.com/starford/favshelf/internal/sse"
	"github.com/starford/favshelf/internal/watcher"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg := rt.cfg
	logger := rt.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_root", rt.fs.Root()),
		slog.String("source_file", rt.export.Path()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	svc := rt.catalog(broker.PublishChange)
	apiRouter := api.NewRouter(svc, rt.fs, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := rt.export.Albums(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Web client, when built.
	static := cfg.Data.Path(cfg.Data.StaticDir)
	if info, err := os.Stat(static); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(static)))
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := watcher.Watch(gCtx, watcher.Config{
			ExportPath: rt.export.Path(),
			Export:     rt.export,
			Root:       rt.fs.Root(),
		}, logger, broker.PublishChange)
		if err != nil {
			logger.Warn("file watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Closing the broker ends open event streams so Shutdown can finish.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Stats returns the download statistics and the album listing.
func Stats(ctx context.Context, opts ...Option) (*catalog.Stats, []catalog.Album, error) {
	rt, err := setup(opts)
	if err != nil {
		return nil, nil, err
	}
	defer rt.close()

	svc := rt.catalog(nil)
	st, err := svc.Stats(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("stats: %w", err)
	}
	albums, err := svc.ListAlbums(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list albums: %w", err)
	}
	return st, albums, nil
}
