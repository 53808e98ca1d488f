// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the comic rewriter HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from .env and environment variables.
//  3. Connect to PostgreSQL and run migrations (when DATABASE_URL is set).
//  4. Connect to Redis (when REDIS_URL is set).
//  5. Wire the workspace, queue, and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/comicrewriter/internal/api"
	"github.com/taibuivan/comicrewriter/internal/core/credential"
	"github.com/taibuivan/comicrewriter/internal/core/export"
	"github.com/taibuivan/comicrewriter/internal/core/history"
	"github.com/taibuivan/comicrewriter/internal/core/ingest"
	"github.com/taibuivan/comicrewriter/internal/core/preview"
	"github.com/taibuivan/comicrewriter/internal/core/queue"
	"github.com/taibuivan/comicrewriter/internal/core/rewrite"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/config"
	"github.com/taibuivan/comicrewriter/internal/platform/constants"
	"github.com/taibuivan/comicrewriter/internal/platform/events"
	"github.com/taibuivan/comicrewriter/internal/platform/migration"
	pgstore "github.com/taibuivan/comicrewriter/internal/platform/postgres"
	redisstore "github.com/taibuivan/comicrewriter/internal/platform/redis"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	language, err := rewrite.ParseLanguage(cfg.DefaultLanguage)
	must(log, err, "parse DEFAULT_LANGUAGE")

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("history_enabled", cfg.DatabaseURL != ""),
		slog.Bool("credential_persisted", cfg.RedisURL != ""),
	)

	// Root context for background workers; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Use a 30s deadline so misconfiguration is caught quickly rather than
	// hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	var healthDeps api.HealthDependencies

	// ── 3. PostgreSQL (optional) ──────────────────────────────────────────
	var recorder history.Recorder = history.Noop{}
	var historyService *history.Service

	if cfg.DatabaseURL != "" {
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing postgres pool")
			pool.Close()
		}()

		historyService = history.NewService(history.NewPostgresRepository(pool), log)
		recorder = historyService
		healthDeps.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}
	}

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var keyStore credential.Store = credential.NewMemoryStore()

	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		keyStore = credential.NewRedisStore(rdb)
		healthDeps.CheckCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	hub := events.NewHub(log)
	previews := preview.NewRegistry(preview.DefaultPrefix)
	ws := workspace.New(previews)
	credentials := credential.NewService(keyStore, cfg.APIKey, log)
	rewriter := rewrite.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, &http.Client{})

	controller := queue.New(ws, rewriter, credentials, queue.Config{
		PacingDelay: cfg.QueuePacingDelay,
		Timeout:     cfg.RewriteTimeout,
		Language:    language,
	}, log, queue.WithPublisher(hub), queue.WithRecorder(recorder))

	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Upload:     ingest.NewHandler(ingest.New(previews), ws, hub, cfg.MaxUploadBytes, log),
		Workspace:  workspace.NewHandler(ws),
		Preview:    preview.NewHandler(previews),
		Queue:      queue.NewHandler(controller),
		Credential: credential.NewHandler(credentials),
		Export:     export.NewHandler(ws),
		History:    history.NewHandler(historyService),
		Events:     events.NewHandler(hub, cfg.Origins()),
	}

	server := api.NewServer(rootCtx, cfg, log, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	// Stop the batch run before the stores it writes to are closed.
	queueCtx, queueCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer queueCancel()
	if err := controller.Shutdown(queueCtx); err != nil {
		log.Error("queue shutdown error", slog.Any("error", err))
	}

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors must be
// returned and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
