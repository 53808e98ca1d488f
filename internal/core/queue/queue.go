// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package queue drives pages of the current tree through the rewrite model.

# Execution Model

  - Single page: [Controller.ProcessPage] claims a page, calls the model once,
    and records DONE or ERROR. Model failures stay inside the page.
  - Batch: [Controller.Run] walks chapters and pages in stored order, strictly
    one page at a time, with a fixed pacing delay after each page.
  - Cancellation: [Controller.Stop] is cooperative. The in-flight call
    finishes; the next page never starts.

A page is owned by at most one caller, so a manual reprocess and the batch
loop can never write the same page concurrently.
*/
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/comicrewriter/internal/core/history"
	"github.com/taibuivan/comicrewriter/internal/core/rewrite"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
	"github.com/taibuivan/comicrewriter/internal/platform/events"
)

var (
	// ErrMissingCredential blocks processing until an API key is configured.
	ErrMissingCredential = apperr.Unprocessable("API key is not configured")

	// ErrAlreadyRunning is returned when a batch run is already active.
	ErrAlreadyRunning = apperr.Conflict("Queue is already running")

	// ErrPageNotFound and ErrPageBusy are the precondition failures of a single page.
	ErrPageNotFound = workspace.ErrPageNotFound
	ErrPageBusy     = workspace.ErrPageBusy
)

// CredentialSource resolves the API key at call time.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// Config tunes the controller.
type Config struct {
	// PacingDelay is waited after each page of a batch run.
	PacingDelay time.Duration

	// Timeout bounds a single model call. Zero disables the bound.
	Timeout time.Duration

	// Language is the initial output language.
	Language rewrite.Language
}

// Summary counts what a batch run did.
type Summary struct {
	Processed int  `json:"processed"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Skipped   int  `json:"skipped"`
	Cancelled bool `json:"cancelled"`
}

// State is the observable controller state.
type State struct {
	Running       bool                `json:"running"`
	StopRequested bool                `json:"stop_requested"`
	Language      rewrite.Language    `json:"language"`
	BatchID       string              `json:"batch_id"`
	Selection     workspace.Selection `json:"selection"`
	Stats         workspace.Stats     `json:"stats"`
}

// Controller is the processing queue.
type Controller struct {
	workspace   *workspace.Workspace
	rewriter    rewrite.Rewriter
	credentials CredentialSource
	publisher   events.Publisher
	recorder    history.Recorder
	logger      *slog.Logger
	config      Config

	mu       sync.Mutex
	language rewrite.Language
	running  bool
	stop     chan struct{} // closed by Stop; replaced on every run
	done     chan struct{} // closed when the active run exits
	cancel   context.CancelFunc
}

// Option configures optional collaborators of a [Controller].
type Option func(*Controller)

// WithPublisher sends progress events to publisher.
func WithPublisher(publisher events.Publisher) Option {
	return func(controller *Controller) {
		controller.publisher = publisher
	}
}

// WithRecorder archives every finished page.
func WithRecorder(recorder history.Recorder) Option {
	return func(controller *Controller) {
		controller.recorder = recorder
	}
}

// New constructs a [Controller].
func New(ws *workspace.Workspace, rewriter rewrite.Rewriter, credentials CredentialSource, config Config, logger *slog.Logger, opts ...Option) *Controller {
	if config.Language == "" {
		config.Language = rewrite.DefaultLanguage
	}

	controller := &Controller{
		workspace:   ws,
		rewriter:    rewriter,
		credentials: credentials,
		publisher:   events.Discard{},
		recorder:    history.Noop{},
		logger:      logger,
		config:      config,
		language:    config.Language,
	}
	for _, opt := range opts {
		opt(controller)
	}
	return controller
}

// # Language

// Language returns the active output language.
func (controller *Controller) Language() rewrite.Language {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.language
}

// SetLanguage switches the output language for pages started afterwards.
func (controller *Controller) SetLanguage(language rewrite.Language) {
	controller.mu.Lock()
	controller.language = language
	controller.mu.Unlock()

	controller.logger.Info("language_changed", slog.String("language", string(language)))
}

// # Single Page

/*
ProcessPage rewrites one page.

Description: Preconditions are checked first and leave the tree untouched
when they fail. Once the page is claimed, every model failure ends the page
as ERROR and is not returned.

Parameters:
  - ctx: context.Context (cancelling it aborts the in-flight model call)
  - chapterID: string
  - pageID: string

Returns:
  - workspace.Page: The page after processing
  - error: ErrPageNotFound, ErrMissingCredential, ErrPageBusy or storage errors
*/
func (controller *Controller) ProcessPage(ctx context.Context, chapterID, pageID string) (workspace.Page, error) {
	if _, ok := controller.workspace.Page(chapterID, pageID); !ok {
		return workspace.Page{}, ErrPageNotFound
	}

	apiKey, err := controller.credentials.APIKey(ctx)
	if err != nil {
		return workspace.Page{}, fmt.Errorf("resolve api key: %w", err)
	}
	if apiKey == "" {
		return workspace.Page{}, ErrMissingCredential
	}

	claim, page, err := controller.workspace.Begin(chapterID, pageID)
	if err != nil {
		return workspace.Page{}, err
	}

	batchID := controller.workspace.BatchID()
	language := controller.Language()
	controller.publishPage(batchID, chapterID, page)

	started := time.Now()
	result, failure := controller.rewritePage(ctx, apiKey, language, page)
	elapsed := time.Since(started)

	finished, err := controller.workspace.Finish(claim, result, failure)
	if err != nil {
		controller.logger.WarnContext(ctx, "page_result_discarded",
			slog.String("chapter_id", chapterID),
			slog.String("page_id", pageID),
			slog.Any("error", err),
		)
		return workspace.Page{}, err
	}

	controller.publishPage(batchID, chapterID, finished)
	controller.record(ctx, batchID, chapterID, language, finished, elapsed)

	logAttrs := []any{
		slog.String("chapter_id", chapterID),
		slog.String("page", finished.Name),
		slog.String("status", string(finished.Status)),
		slog.Duration("duration", elapsed),
	}
	switch {
	case rewrite.IsKind(failure, rewrite.KindCredential) || rewrite.IsKind(failure, rewrite.KindQuota):
		// The remaining pages will fail the same way until the key changes.
		controller.logger.ErrorContext(ctx, "page_failed",
			append(logAttrs, slog.Any("error", failure), slog.Bool("key_problem", true))...)
	case failure != nil:
		controller.logger.WarnContext(ctx, "page_failed", append(logAttrs, slog.Any("error", failure))...)
	default:
		controller.logger.InfoContext(ctx, "page_processed", logAttrs...)
	}

	return finished, nil
}

// rewritePage reads the page image and performs a single bounded model call.
func (controller *Controller) rewritePage(ctx context.Context, apiKey string, language rewrite.Language, page workspace.Page) (string, error) {
	if page.Source == nil {
		return "", errors.New("page has no image content")
	}

	image, err := workspace.ReadSource(page.Source)
	if err != nil {
		return "", fmt.Errorf("failed to read page image: %w", err)
	}

	callCtx := ctx
	if controller.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, controller.config.Timeout)
		defer cancel()
	}

	return controller.rewriter.Rewrite(callCtx, rewrite.Request{
		APIKey:      apiKey,
		Image:       image,
		MediaType:   page.MediaType,
		Instruction: language.Instruction(),
	})
}

// # Batch Run

/*
Run processes the whole tree synchronously.

Description: Chapters and pages are visited in stored order. DONE pages are
skipped; every other status is (re)processed. A stop request, a cancelled
ctx, a replaced tree or a cleared credential ends the run before the next
page. Per-page failures never end it.

Returns:
  - Summary: Counts of the run
  - error: ErrMissingCredential or ErrAlreadyRunning before anything starts
*/
func (controller *Controller) Run(ctx context.Context) (Summary, error) {
	stop, done, err := controller.begin(ctx, nil)
	if err != nil {
		return Summary{}, err
	}
	return controller.loop(ctx, stop, done), nil
}

// Start launches [Controller.Run] in the background. The run outlives ctx's
// cancellation; use [Controller.Shutdown] to abort it.
func (controller *Controller) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	stop, done, err := controller.begin(ctx, cancel)
	if err != nil {
		cancel()
		return err
	}

	go func() {
		defer cancel()
		controller.loop(runCtx, stop, done)
	}()
	return nil
}

// Stop requests cooperative cancellation. It reports whether a run was active.
func (controller *Controller) Stop() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if !controller.running {
		return false
	}

	select {
	case <-controller.stop:
	default:
		close(controller.stop)
		controller.logger.Info("queue_stop_requested")
	}
	return true
}

// Wait blocks until the active run, if any, has exited.
func (controller *Controller) Wait(ctx context.Context) error {
	controller.mu.Lock()
	done := controller.done
	controller.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the active run, aborts its in-flight call, and waits for it.
func (controller *Controller) Shutdown(ctx context.Context) error {
	controller.Stop()

	controller.mu.Lock()
	cancel := controller.cancel
	controller.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return controller.Wait(ctx)
}

// State returns a snapshot of the controller and tree progress.
func (controller *Controller) State() State {
	controller.mu.Lock()
	state := State{
		Running:  controller.running,
		Language: controller.language,
	}
	if controller.running {
		select {
		case <-controller.stop:
			state.StopRequested = true
		default:
		}
	}
	controller.mu.Unlock()

	state.BatchID = controller.workspace.BatchID()
	state.Selection = controller.workspace.Selection()
	state.Stats = controller.workspace.Stats()
	return state
}

// begin checks the credential guard and marks the controller active.
func (controller *Controller) begin(ctx context.Context, cancel context.CancelFunc) (chan struct{}, chan struct{}, error) {
	apiKey, err := controller.credentials.APIKey(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve api key: %w", err)
	}
	if apiKey == "" {
		controller.logger.WarnContext(ctx, "queue_blocked_missing_credential")
		return nil, nil, ErrMissingCredential
	}

	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.running {
		return nil, nil, ErrAlreadyRunning
	}

	controller.running = true
	controller.stop = make(chan struct{})
	controller.done = make(chan struct{})
	controller.cancel = cancel
	return controller.stop, controller.done, nil
}

func (controller *Controller) loop(ctx context.Context, stop, done chan struct{}) Summary {
	var summary Summary
	batchID := controller.workspace.BatchID()
	chapters := controller.workspace.Chapters()

	controller.logger.InfoContext(ctx, "queue_started", slog.String("batch_id", batchID))
	controller.publisher.Publish(events.Event{Type: events.TypeQueueStarted, BatchID: batchID})

	defer func() {
		controller.mu.Lock()
		controller.running = false
		controller.cancel = nil
		controller.mu.Unlock()

		controller.logger.InfoContext(ctx, "queue_finished",
			slog.String("batch_id", batchID),
			slog.Int("processed", summary.Processed),
			slog.Int("failed", summary.Failed),
			slog.Int("skipped", summary.Skipped),
			slog.Bool("cancelled", summary.Cancelled),
		)
		controller.publisher.Publish(events.Event{Type: events.TypeQueueFinished, BatchID: batchID, Cancelled: summary.Cancelled})

		close(done)
	}()

outer:
	for _, chapter := range chapters {
		for _, snapshot := range chapter.Pages {
			if isClosed(stop) || ctx.Err() != nil {
				summary.Cancelled = true
				break outer
			}
			if controller.workspace.BatchID() != batchID {
				controller.logger.InfoContext(ctx, "queue_aborted_tree_replaced", slog.String("batch_id", batchID))
				summary.Cancelled = true
				break outer
			}

			current, ok := controller.workspace.Page(chapter.ID, snapshot.ID)
			if !ok {
				continue
			}
			if current.Status == workspace.StatusDone {
				summary.Skipped++
				continue
			}

			if err := controller.workspace.Select(chapter.ID, current.ID); err == nil {
				controller.publisher.Publish(events.Event{
					Type: events.TypeSelection, BatchID: batchID, ChapterID: chapter.ID, PageID: current.ID,
				})
			}

			page, err := controller.ProcessPage(ctx, chapter.ID, current.ID)
			switch {
			case err == nil:
				summary.Processed++
				if page.Status == workspace.StatusDone {
					summary.Succeeded++
				} else {
					summary.Failed++
				}
			case errors.Is(err, ErrMissingCredential):
				controller.logger.WarnContext(ctx, "queue_aborted_missing_credential")
				summary.Cancelled = true
				break outer
			case errors.Is(err, ErrPageBusy), errors.Is(err, workspace.ErrInvalidTransition):
				// Owned by a concurrent manual call.
				summary.Skipped++
				continue
			default:
				controller.logger.WarnContext(ctx, "queue_page_skipped",
					slog.String("page_id", current.ID),
					slog.Any("error", err),
				)
				summary.Skipped++
			}

			if !controller.pace(ctx, stop) {
				summary.Cancelled = true
				break outer
			}
		}
	}

	return summary
}

// pace waits the pacing delay. It returns false when the wait was cut short
// by a stop request or a cancelled ctx.
func (controller *Controller) pace(ctx context.Context, stop chan struct{}) bool {
	if controller.config.PacingDelay <= 0 {
		return true
	}

	timer := time.NewTimer(controller.config.PacingDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// # Notifications

func (controller *Controller) publishPage(batchID, chapterID string, page workspace.Page) {
	controller.publisher.Publish(events.Event{
		Type:      events.TypePageStatus,
		BatchID:   batchID,
		ChapterID: chapterID,
		PageID:    page.ID,
		Status:    string(page.Status),
		Error:     page.Error,
	})
}

func (controller *Controller) record(ctx context.Context, batchID, chapterID string, language rewrite.Language, page workspace.Page, elapsed time.Duration) {
	entry := history.Entry{
		BatchID:    batchID,
		ChapterID:  chapterID,
		PageID:     page.ID,
		PageName:   page.Name,
		PagePath:   page.Path,
		Status:     string(page.Status),
		Result:     page.Result,
		Error:      page.Error,
		Language:   string(language),
		DurationMs: elapsed.Milliseconds(),
	}

	// History is best effort and must not fail the page.
	if err := controller.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		controller.logger.WarnContext(ctx, "page_history_failed", slog.String("page_id", page.ID), slog.Any("error", err))
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
