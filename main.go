package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tasklist/internal/config"
	"tasklist/internal/handlers"
	"tasklist/internal/logging"
	"tasklist/internal/store"
	"tasklist/internal/tasklist"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tasklist: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logCloser.Close()

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	list, err := tasklist.Open(ctx, s, tasklist.WithLogger(logger.With().Str("component", "tasklist").Logger()))
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	h := handlers.New(list, s, tmpl,
		handlers.WithLogger(logger.With().Str("component", "handlers").Logger()),
		handlers.WithPageSize(cfg.PageSize),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(h, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("db", cfg.DBPath).Msgf("Starting server on http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
	}

	// Write the final state even if an earlier write-through failed.
	if err := list.Flush(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to flush tasks on shutdown")
	}

	return nil
}

func newRouter(h *handlers.Handlers, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	h.Routes(r)

	return r
}

func parseTemplates() (*template.Template, error) {
	tmpl := template.New("")

	// Parse all templates
	patterns := []string{
		"templates/*.html",
		"templates/partials/*.html",
	}

	for _, pattern := range patterns {
		matches, err := fs.Glob(templatesFS, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}

		for _, match := range matches {
			content, err := templatesFS.ReadFile(match)
			if err != nil {
				return nil, fmt.Errorf("failed to read template %s: %w", match, err)
			}

			name := filepath.Base(match)
			if _, err := tmpl.New(name).Parse(string(content)); err != nil {
				return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
			}
		}
	}

	return tmpl, nil
}
