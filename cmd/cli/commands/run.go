// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/comicrewriter/internal/core/credential"
	"github.com/taibuivan/comicrewriter/internal/core/export"
	"github.com/taibuivan/comicrewriter/internal/core/history"
	"github.com/taibuivan/comicrewriter/internal/core/preview"
	"github.com/taibuivan/comicrewriter/internal/core/queue"
	"github.com/taibuivan/comicrewriter/internal/core/rewrite"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/migration"
	pgstore "github.com/taibuivan/comicrewriter/internal/platform/postgres"
	redisstore "github.com/taibuivan/comicrewriter/internal/platform/redis"
)

type runOptions struct {
	output   string
	language string
	apiKey   string
	delay    time.Duration
	timeout  time.Duration
}

func newRunCommand(state *session) *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run <directory>",
		Short: "Rewrite every page of a folder and write the export file",
		Long: `run processes every page in reading order, one at a time, then writes the
collected dialogue to the output file. The first interrupt lets the current
page finish and then stops; a second interrupt aborts that page. Either way
the export keeps what was already finished.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if !cmd.Flags().Changed("delay") {
				opts.delay = state.cfg.QueuePacingDelay
			}
			if !cmd.Flags().Changed("timeout") {
				opts.timeout = state.cfg.RewriteTimeout
			}
			if opts.language == "" {
				opts.language = state.cfg.DefaultLanguage
			}
			if opts.apiKey == "" {
				opts.apiKey = state.cfg.APIKey
			}

			return runQueue(ctx, cancel, cmd, state, args[0], opts)
		},
	}

	runCmd.Flags().StringVarP(&opts.output, "output", "o", export.Filename, "export file path")
	runCmd.Flags().StringVarP(&opts.language, "language", "l", "", "output language (en or vi)")
	runCmd.Flags().StringVar(&opts.apiKey, "api-key", "", "model API key (defaults to API_KEY or the stored key)")
	runCmd.Flags().DurationVar(&opts.delay, "delay", time.Second, "pause between pages")
	runCmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "limit for a single page")

	return runCmd
}

func runQueue(ctx context.Context, cancel context.CancelFunc, cmd *cobra.Command, state *session, directory string, opts *runOptions) error {
	cfg, logger := state.cfg, state.logger

	language, err := rewrite.ParseLanguage(opts.language)
	if err != nil {
		return fmt.Errorf("language %q: %w", opts.language, err)
	}

	previews := preview.NewRegistry(preview.DefaultPrefix)
	chapters, err := loadChapters(directory, previews)
	if err != nil {
		return err
	}

	ws := workspace.New(previews)
	ws.Replace(chapters)

	// The stored key is shared with the server when Redis is configured.
	var keyStore credential.Store = credential.NewMemoryStore()
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		keyStore = credential.NewRedisStore(rdb)
	}
	credentials := credential.NewService(keyStore, opts.apiKey, logger)

	var recorder history.Recorder = history.Noop{}
	if cfg.DatabaseURL != "" {
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
			return err
		}
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		recorder = history.NewService(history.NewPostgresRepository(pool), logger)
	}

	progress := newProgress(cmd.ErrOrStderr(), ws.Stats().Total)
	controller := queue.New(ws,
		rewrite.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, &http.Client{}),
		credentials,
		queue.Config{PacingDelay: opts.delay, Timeout: opts.timeout, Language: language},
		logger,
		queue.WithPublisher(progress),
		queue.WithRecorder(recorder),
	)

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan struct{})
	defer close(done)
	go interruptOnSignal(signals, done, controller, cancel, cmd.ErrOrStderr(), logger)

	summary, err := controller.Run(ctx)
	progress.Finish()
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.output, []byte(export.Render(ws.Chapters())), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d pages: %d succeeded, %d failed, %d skipped\n",
		summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
	if summary.Cancelled {
		fmt.Fprintln(out, "Run was interrupted; the export holds the pages finished so far.")
	}
	fmt.Fprintf(out, "Wrote %s\n", opts.output)
	return nil
}

// interruptOnSignal stops the queue after the in-flight page on the first
// signal and cancels that page on the second.
func interruptOnSignal(signals <-chan os.Signal, done <-chan struct{}, controller *queue.Controller, cancel context.CancelFunc, out io.Writer, logger *slog.Logger) {
	select {
	case sig := <-signals:
		logger.Info("run_interrupt_received", slog.String("signal", sig.String()))
		controller.Stop()
		fmt.Fprintln(out, "\nStopping after the current page. Interrupt again to abort it.")
	case <-done:
		return
	}

	select {
	case sig := <-signals:
		logger.Warn("run_aborted", slog.String("signal", sig.String()))
		cancel()
	case <-done:
	}
}
