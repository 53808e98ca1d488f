// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/comicrewriter/internal/core/credential"
	"github.com/taibuivan/comicrewriter/internal/core/export"
	"github.com/taibuivan/comicrewriter/internal/core/history"
	"github.com/taibuivan/comicrewriter/internal/core/ingest"
	"github.com/taibuivan/comicrewriter/internal/core/preview"
	"github.com/taibuivan/comicrewriter/internal/core/queue"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/config"
	"github.com/taibuivan/comicrewriter/internal/platform/constants"
	"github.com/taibuivan/comicrewriter/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler, 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler, 200 when all configured deps are healthy.
	Readiness http.HandlerFunc

	// Upload ingests a multipart folder upload.
	Upload *ingest.Handler

	// Workspace exposes the chapter tree and the selection.
	Workspace *workspace.Handler

	// Preview serves page images.
	Preview *preview.Handler

	// Queue drives single-page processing, the batch run, and the language.
	Queue *queue.Handler

	// Credential manages the model API key.
	Credential *credential.Handler

	// Export downloads the collected results.
	Export *export.Handler

	// History lists archived page results.
	History *history.Handler

	// Events upgrades to the progress event stream.
	Events http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Event Stream
	// Long-lived, so it stays outside the request deadline.
	r.Method(http.MethodGet, "/ws", h.Events)

	// # Application API
	r.Group(func(bounded chi.Router) {
		bounded.Use(chimw.Timeout(constants.GlobalRequestTimeout))

		bounded.Route("/api/v1", func(api chi.Router) {
			api.Mount("/uploads", h.Upload.Routes())
			api.Mount("/workspace", h.Workspace.Routes())
			api.Mount("/previews", h.Preview.Routes())
			api.Mount("/pages", h.Queue.PageRoutes())
			api.Mount("/queue", h.Queue.Routes())
			api.Mount("/language", h.Queue.LanguageRoutes())
			api.Mount("/credential", h.Credential.Routes())
			api.Mount("/export", h.Export.Routes())
			api.Mount("/history", h.History.Routes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
