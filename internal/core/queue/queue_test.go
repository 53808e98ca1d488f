// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package queue_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comicrewriter/internal/core/history"
	"github.com/taibuivan/comicrewriter/internal/core/queue"
	"github.com/taibuivan/comicrewriter/internal/core/rewrite"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/events"
)

// # Test Doubles

type staticKey string

func (key staticKey) APIKey(context.Context) (string, error) { return string(key), nil }

// fakeRewriter answers with "rewritten:<page name>" unless behave overrides it.
type fakeRewriter struct {
	mu     sync.Mutex
	calls  []string
	last   rewrite.Request
	behave func(ctx context.Context, page string) (string, error)
}

func (rewriter *fakeRewriter) Rewrite(ctx context.Context, request rewrite.Request) (string, error) {
	page := string(request.Image)

	rewriter.mu.Lock()
	rewriter.calls = append(rewriter.calls, page)
	rewriter.last = request
	behave := rewriter.behave
	rewriter.mu.Unlock()

	if behave != nil {
		return behave(ctx, page)
	}
	return "rewritten:" + page, nil
}

func (rewriter *fakeRewriter) Calls() []string {
	rewriter.mu.Lock()
	defer rewriter.mu.Unlock()
	return append([]string(nil), rewriter.calls...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (publisher *recordingPublisher) Publish(event events.Event) {
	publisher.mu.Lock()
	publisher.events = append(publisher.events, event)
	publisher.mu.Unlock()
}

func (publisher *recordingPublisher) Types() []string {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	types := make([]string, len(publisher.events))
	for i, event := range publisher.events {
		types[i] = event.Type
	}
	return types
}

type recordingRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (recorder *recordingRecorder) Record(_ context.Context, entry history.Entry) error {
	recorder.mu.Lock()
	recorder.entries = append(recorder.entries, entry)
	recorder.mu.Unlock()
	return nil
}

// # Fixtures

// newWorkspace installs two chapters: "Chapter 1" with pages a, b and
// "Chapter 2" with page c. Page ids equal page names.
func newWorkspace() *workspace.Workspace {
	page := func(name string) *workspace.Page {
		return &workspace.Page{
			ID: name, Name: name, Path: "Comic/" + name,
			MediaType: "image/png", Status: workspace.StatusIdle,
			Source: workspace.BytesSource(name),
		}
	}

	ws := workspace.New(nil)
	ws.Replace([]*workspace.Chapter{
		{ID: "Chapter 1", Name: "Chapter 1", Order: 1, Pages: []*workspace.Page{page("a"), page("b")}},
		{ID: "Chapter 2", Name: "Chapter 2", Order: 2, Pages: []*workspace.Page{page("c")}},
	})
	return ws
}

func chapterOf(page string) string {
	if page == "c" {
		return "Chapter 2"
	}
	return "Chapter 1"
}

func status(t *testing.T, ws *workspace.Workspace, page string) workspace.Status {
	t.Helper()
	found, ok := ws.Page(chapterOf(page), page)
	require.True(t, ok)
	return found.Status
}

func newController(ws *workspace.Workspace, rewriter rewrite.Rewriter, key string, config queue.Config, opts ...queue.Option) *queue.Controller {
	return queue.New(ws, rewriter, staticKey(key), config, slog.Default(), opts...)
}

// # Single Page

/*
TestProcessPage_Success records DONE with the model result, publishes the
status transitions, and archives the attempt.
*/
func TestProcessPage_Success(t *testing.T) {
	ws := newWorkspace()
	publisher := &recordingPublisher{}
	recorder := &recordingRecorder{}
	controller := newController(ws, &fakeRewriter{}, "key", queue.Config{},
		queue.WithPublisher(publisher), queue.WithRecorder(recorder))

	page, err := controller.ProcessPage(context.Background(), "Chapter 1", "a")

	require.NoError(t, err)
	assert.Equal(t, workspace.StatusDone, page.Status)
	require.NotNil(t, page.Result)
	assert.Equal(t, "rewritten:a", *page.Result)
	assert.Empty(t, page.Error)

	assert.Equal(t, []string{events.TypePageStatus, events.TypePageStatus}, publisher.Types())
	assert.Equal(t, "PROCESSING", publisher.events[0].Status)
	assert.Equal(t, "DONE", publisher.events[1].Status)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "DONE", recorder.entries[0].Status)
	assert.Equal(t, ws.BatchID(), recorder.entries[0].BatchID)
	assert.Equal(t, "vi", recorder.entries[0].Language)
}

/*
TestProcessPage_ServiceFailure contains the failure inside the page.
*/
func TestProcessPage_ServiceFailure(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{behave: func(context.Context, string) (string, error) {
		return "", &rewrite.ServiceError{Kind: rewrite.KindQuota, Message: "Model returned 429: quota exceeded"}
	}}
	controller := newController(ws, rewriter, "key", queue.Config{})

	page, err := controller.ProcessPage(context.Background(), "Chapter 1", "b")

	require.NoError(t, err)
	assert.Equal(t, workspace.StatusError, page.Status)
	assert.Nil(t, page.Result)
	assert.Equal(t, "Model returned 429: quota exceeded", page.Error)
}

/*
TestProcessPage_FailureLogLevel escalates credential and quota failures to
error level and keeps other failures at warn.
*/
func TestProcessPage_FailureLogLevel(t *testing.T) {
	tests := []struct {
		name       string
		failure    error
		level      string
		keyProblem bool
	}{
		{"credential", &rewrite.ServiceError{Kind: rewrite.KindCredential, Message: "Model returned 403: denied"}, "ERROR", true},
		{"quota", &rewrite.ServiceError{Kind: rewrite.KindQuota, Message: "Model returned 429: exhausted"}, "ERROR", true},
		{"network", &rewrite.ServiceError{Kind: rewrite.KindNetwork, Message: "Network error contacting model"}, "WARN", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buffer bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buffer, nil))

			rewriter := &fakeRewriter{behave: func(context.Context, string) (string, error) { return "", tt.failure }}
			controller := queue.New(newWorkspace(), rewriter, staticKey("key"), queue.Config{}, logger)

			_, err := controller.ProcessPage(context.Background(), "Chapter 1", "a")
			require.NoError(t, err)

			var entry map[string]any
			for _, line := range bytes.Split(bytes.TrimSpace(buffer.Bytes()), []byte("\n")) {
				var decoded map[string]any
				require.NoError(t, json.Unmarshal(line, &decoded))
				if decoded["msg"] == "page_failed" {
					entry = decoded
				}
			}

			require.NotNil(t, entry)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.keyProblem, entry["key_problem"] == true)
		})
	}
}

/*
TestProcessPage_Preconditions leaves the tree untouched when the page is
unknown or no key is configured.
*/
func TestProcessPage_Preconditions(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{}

	_, err := newController(ws, rewriter, "key", queue.Config{}).ProcessPage(context.Background(), "Chapter 1", "zzz")
	assert.ErrorIs(t, err, queue.ErrPageNotFound)

	_, err = newController(ws, rewriter, "", queue.Config{}).ProcessPage(context.Background(), "Chapter 1", "a")
	assert.ErrorIs(t, err, queue.ErrMissingCredential)

	assert.Equal(t, workspace.StatusIdle, status(t, ws, "a"))
	assert.Empty(t, rewriter.Calls())
}

/*
TestProcessPage_Busy rejects a second caller while the first call is in flight.
*/
func TestProcessPage_Busy(t *testing.T) {
	ws := newWorkspace()
	release := make(chan struct{})
	rewriter := &fakeRewriter{behave: func(_ context.Context, page string) (string, error) {
		<-release
		return "late:" + page, nil
	}}
	controller := newController(ws, rewriter, "key", queue.Config{})

	done := make(chan workspace.Page)
	go func() {
		page, _ := controller.ProcessPage(context.Background(), "Chapter 1", "a")
		done <- page
	}()

	require.Eventually(t, func() bool { return status(t, ws, "a") == workspace.StatusProcessing }, time.Second, 5*time.Millisecond)

	_, err := controller.ProcessPage(context.Background(), "Chapter 1", "a")
	assert.ErrorIs(t, err, queue.ErrPageBusy)

	close(release)
	page := <-done
	assert.Equal(t, "late:a", *page.Result)
	assert.Len(t, rewriter.Calls(), 1)
}

/*
TestProcessPage_Timeout bounds a hung model call.
*/
func TestProcessPage_Timeout(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{behave: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", &rewrite.ServiceError{Kind: rewrite.KindNetwork, Message: "Model request timed out", Cause: ctx.Err()}
	}}
	controller := newController(ws, rewriter, "key", queue.Config{Timeout: 20 * time.Millisecond})

	page, err := controller.ProcessPage(context.Background(), "Chapter 1", "a")

	require.NoError(t, err)
	assert.Equal(t, workspace.StatusError, page.Status)
	assert.Equal(t, "Model request timed out", page.Error)
}

/*
TestProcessPage_ActiveLanguage sends the instruction of the active language.
*/
func TestProcessPage_ActiveLanguage(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{}
	controller := newController(ws, rewriter, "key", queue.Config{})

	assert.Equal(t, rewrite.LanguageVietnamese, controller.Language())
	controller.SetLanguage(rewrite.LanguageEnglish)

	_, err := controller.ProcessPage(context.Background(), "Chapter 1", "a")
	require.NoError(t, err)

	assert.Equal(t, rewrite.LanguageEnglish.Instruction(), rewriter.last.Instruction)
	assert.Equal(t, "key", rewriter.last.APIKey)
	assert.Equal(t, "image/png", rewriter.last.MediaType)
}

// # Batch Run

/*
TestRun_SkipsDoneAndReprocessesError pre-seeds one DONE and one ERROR page.
*/
func TestRun_SkipsDoneAndReprocessesError(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{behave: func(_ context.Context, page string) (string, error) {
		if page == "b" {
			return "", errors.New("boom")
		}
		return "ok:" + page, nil
	}}
	controller := newController(ws, rewriter, "key", queue.Config{})

	_, err := controller.ProcessPage(context.Background(), "Chapter 1", "a")
	require.NoError(t, err)
	_, err = controller.ProcessPage(context.Background(), "Chapter 1", "b")
	require.NoError(t, err)
	require.Equal(t, workspace.StatusError, status(t, ws, "b"))

	rewriter.mu.Lock()
	rewriter.calls = nil
	rewriter.behave = nil
	rewriter.mu.Unlock()

	summary, err := controller.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, rewriter.Calls())
	assert.Equal(t, queue.Summary{Processed: 2, Succeeded: 2, Skipped: 1}, summary)
	assert.Equal(t, workspace.StatusDone, status(t, ws, "b"))
	assert.Equal(t, workspace.Selection{ChapterID: "Chapter 2", PageID: "c"}, ws.Selection())
	assert.False(t, controller.State().Running)
}

/*
TestRun_StopDuringPage lets page i finish and never starts page i+1.
*/
func TestRun_StopDuringPage(t *testing.T) {
	ws := newWorkspace()
	var controller *queue.Controller
	rewriter := &fakeRewriter{behave: func(_ context.Context, page string) (string, error) {
		if page == "b" {
			controller.Stop()
		}
		return "ok:" + page, nil
	}}
	controller = newController(ws, rewriter, "key", queue.Config{})

	summary, err := controller.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, []string{"a", "b"}, rewriter.Calls())
	assert.Equal(t, workspace.StatusDone, status(t, ws, "b"))
	assert.Equal(t, workspace.StatusIdle, status(t, ws, "c"))
}

/*
TestRun_FailureDoesNotAbort keeps going after a failed page.
*/
func TestRun_FailureDoesNotAbort(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{behave: func(_ context.Context, page string) (string, error) {
		if page == "a" {
			return "", errors.New("network down")
		}
		return "ok:" + page, nil
	}}
	controller := newController(ws, rewriter, "key", queue.Config{})

	summary, err := controller.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, queue.Summary{Processed: 3, Succeeded: 2, Failed: 1}, summary)
	assert.Equal(t, workspace.StatusError, status(t, ws, "a"))
	assert.Equal(t, workspace.StatusDone, status(t, ws, "c"))

	stats := ws.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
}

/*
TestRun_MissingCredential aborts before marking the queue active.
*/
func TestRun_MissingCredential(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{}
	controller := newController(ws, rewriter, "", queue.Config{})

	_, err := controller.Run(context.Background())

	assert.ErrorIs(t, err, queue.ErrMissingCredential)
	assert.ErrorIs(t, controller.Start(context.Background()), queue.ErrMissingCredential)
	assert.False(t, controller.State().Running)
	assert.Empty(t, rewriter.Calls())
}

/*
TestRun_Pacing waits the pacing delay after every page.
*/
func TestRun_Pacing(t *testing.T) {
	ws := newWorkspace()
	controller := newController(ws, &fakeRewriter{}, "key", queue.Config{PacingDelay: 30 * time.Millisecond})

	started := time.Now()
	summary, err := controller.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.GreaterOrEqual(t, time.Since(started), 90*time.Millisecond)
}

/*
TestRun_SkipsManuallyOwnedPage never double-processes a page a manual call
already owns.
*/
func TestRun_SkipsManuallyOwnedPage(t *testing.T) {
	ws := newWorkspace()
	release := make(chan struct{})
	rewriter := &fakeRewriter{behave: func(_ context.Context, page string) (string, error) {
		if page == "a" {
			<-release
		}
		return "ok:" + page, nil
	}}
	controller := newController(ws, rewriter, "key", queue.Config{})

	manual := make(chan error)
	go func() {
		_, err := controller.ProcessPage(context.Background(), "Chapter 1", "a")
		manual <- err
	}()
	require.Eventually(t, func() bool { return status(t, ws, "a") == workspace.StatusProcessing }, time.Second, 5*time.Millisecond)

	summary, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Processed)

	close(release)
	require.NoError(t, <-manual)

	assert.Equal(t, []string{"a", "b", "c"}, rewriter.Calls())
	assert.Equal(t, workspace.StatusDone, status(t, ws, "a"))
}

/*
TestStart_Background runs the queue asynchronously, rejects a second start,
and publishes the run lifecycle.
*/
func TestStart_Background(t *testing.T) {
	ws := newWorkspace()
	release := make(chan struct{})
	rewriter := &fakeRewriter{behave: func(_ context.Context, page string) (string, error) {
		<-release
		return "ok:" + page, nil
	}}
	publisher := &recordingPublisher{}
	controller := newController(ws, rewriter, "key", queue.Config{}, queue.WithPublisher(publisher))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, controller.Start(ctx))
	cancel() // the run outlives the starting request

	assert.ErrorIs(t, controller.Start(context.Background()), queue.ErrAlreadyRunning)
	assert.True(t, controller.State().Running)

	close(release)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, controller.Wait(waitCtx))

	assert.False(t, controller.State().Running)
	assert.Equal(t, 3, ws.Stats().Completed)

	types := publisher.Types()
	assert.Equal(t, events.TypeQueueStarted, types[0])
	assert.Equal(t, events.TypeQueueFinished, types[len(types)-1])
	assert.Contains(t, types, events.TypeSelection)
}

/*
TestShutdown aborts the in-flight call of a background run.
*/
func TestShutdown(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{behave: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	controller := newController(ws, rewriter, "key", queue.Config{})

	require.NoError(t, controller.Start(context.Background()))
	require.Eventually(t, func() bool { return len(rewriter.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, controller.Shutdown(ctx))

	assert.False(t, controller.State().Running)
	assert.Equal(t, workspace.StatusError, status(t, ws, "a"))
	assert.Equal(t, workspace.StatusIdle, status(t, ws, "b"))
}

/*
TestRun_TreeReplaced stops a run whose tree was superseded by a new upload.
*/
func TestRun_TreeReplaced(t *testing.T) {
	ws := newWorkspace()
	rewriter := &fakeRewriter{}
	rewriter.behave = func(_ context.Context, page string) (string, error) {
		if page == "a" {
			ws.Replace(nil)
		}
		return "ok:" + page, nil
	}
	controller := newController(ws, rewriter, "key", queue.Config{})

	summary, err := controller.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, []string{"a"}, rewriter.Calls())
	assert.Empty(t, ws.Chapters())
}
