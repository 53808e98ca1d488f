// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package workspace

import (
	"math"
	"sync"

	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
	"github.com/taibuivan/comicrewriter/pkg/pointer"
	"github.com/taibuivan/comicrewriter/pkg/slice"
	"github.com/taibuivan/comicrewriter/pkg/uuid"
)

var (
	// ErrPageNotFound is returned when a chapter/page pair is not in the current tree.
	ErrPageNotFound = apperr.NotFound("Page")

	// ErrPageBusy is returned when another caller already owns the page.
	ErrPageBusy = apperr.Conflict("Page is already being processed")

	// ErrStaleClaim is returned when a claim no longer owns its page, either
	// because the tree was replaced or the page was claimed again.
	ErrStaleClaim = apperr.Conflict("Page was superseded while processing")

	// ErrInvalidTransition is returned for a status change the lifecycle forbids.
	ErrInvalidTransition = apperr.Unprocessable("Invalid page status transition")
)

// PreviewReleaser revokes preview references that are no longer displayed.
type PreviewReleaser interface {
	Release(refs ...string)
}

// # Workspace

// Selection is the page currently focused by observers.
type Selection struct {
	ChapterID string `json:"chapter_id"`
	PageID    string `json:"page_id"`
}

// Claim is the ownership token returned by [Workspace.Begin].
type Claim struct {
	ChapterID string
	PageID    string

	generation uint64
	token      uint64
}

// Stats summarises processing progress across the whole tree.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Processing int `json:"processing"`
	Percent    int `json:"percent"`
}

// Workspace owns the single Chapter/Page tree of the running process.
//
// # Concurrency
//
// All methods are safe for concurrent use. Readers receive deep copies;
// page state only changes through [Workspace.Begin] and [Workspace.Finish].
type Workspace struct {
	mu sync.RWMutex

	chapters   []*Chapter
	batchID    string
	generation uint64

	nextToken uint64
	owners    map[string]uint64 // page id → token of the in-flight claim

	selection Selection
	previews  PreviewReleaser
}

// New constructs an empty [Workspace]. previews may be nil.
func New(previews PreviewReleaser) *Workspace {
	return &Workspace{
		owners:   make(map[string]uint64),
		previews: previews,
	}
}

// # Tree Lifecycle

/*
Replace installs a freshly ingested tree, discarding the previous one.

Description: Every preview reference of the superseded pages is released,
in-flight claims become stale, and the selection moves to the first page of
the first chapter.

Returns:
  - string: Identifier of the new upload batch
*/
func (workspace *Workspace) Replace(chapters []*Chapter) string {
	workspace.mu.Lock()

	var stale []string
	for _, chapter := range workspace.chapters {
		for _, page := range chapter.Pages {
			if page.PreviewURL != "" {
				stale = append(stale, page.PreviewURL)
			}
		}
	}

	workspace.chapters = chapters
	workspace.generation++
	workspace.batchID = uuid.New()
	workspace.owners = make(map[string]uint64)
	workspace.selection = Selection{}

	if len(chapters) > 0 && len(chapters[0].Pages) > 0 {
		workspace.selection = Selection{
			ChapterID: chapters[0].ID,
			PageID:    chapters[0].Pages[0].ID,
		}
	}

	batchID := workspace.batchID
	workspace.mu.Unlock()

	// Release outside the lock; the registry has its own synchronisation.
	if workspace.previews != nil && len(stale) > 0 {
		workspace.previews.Release(stale...)
	}

	return batchID
}

// BatchID returns the identifier of the current upload batch ("" before the first upload).
func (workspace *Workspace) BatchID() string {
	workspace.mu.RLock()
	defer workspace.mu.RUnlock()
	return workspace.batchID
}

// Chapters returns a deep copy of the tree in stored order.
func (workspace *Workspace) Chapters() []Chapter {
	workspace.mu.RLock()
	defer workspace.mu.RUnlock()

	out := make([]Chapter, len(workspace.chapters))
	for i, chapter := range workspace.chapters {
		out[i] = chapter.clone()
	}
	return out
}

// Page returns a copy of a single page.
func (workspace *Workspace) Page(chapterID, pageID string) (Page, bool) {
	workspace.mu.RLock()
	defer workspace.mu.RUnlock()

	_, page := workspace.find(chapterID, pageID)
	if page == nil {
		return Page{}, false
	}

	return page.clone(), true
}

// # Page Ownership

/*
Begin claims a page for processing and moves it to PROCESSING.

Description: Prior result and error are cleared. Only one claim per page can
be outstanding; a second caller gets [ErrPageBusy] until the first one calls
[Workspace.Finish].

Returns:
  - Claim: Ownership token to pass to Finish
  - Page: Copy of the page including its content source
  - error: ErrPageNotFound, ErrPageBusy or ErrInvalidTransition
*/
func (workspace *Workspace) Begin(chapterID, pageID string) (Claim, Page, error) {
	workspace.mu.Lock()
	defer workspace.mu.Unlock()

	_, page := workspace.find(chapterID, pageID)
	if page == nil {
		return Claim{}, Page{}, ErrPageNotFound
	}

	if _, owned := workspace.owners[pageID]; owned {
		return Claim{}, Page{}, ErrPageBusy
	}

	if !page.Status.CanTransition(StatusProcessing) {
		return Claim{}, Page{}, ErrInvalidTransition
	}

	workspace.nextToken++
	workspace.owners[pageID] = workspace.nextToken

	page.Status = StatusProcessing
	page.Result = nil
	page.Error = ""

	claim := Claim{
		ChapterID:  chapterID,
		PageID:     pageID,
		generation: workspace.generation,
		token:      workspace.nextToken,
	}
	return claim, *page, nil
}

/*
Finish records the outcome of a claimed page and releases the claim.

Description: A nil failure moves the page to DONE with result; a non-nil
failure moves it to ERROR with the failure's message and no result.

Returns:
  - Page: Copy of the updated page
  - error: ErrStaleClaim if the claim no longer owns the page
*/
func (workspace *Workspace) Finish(claim Claim, result string, failure error) (Page, error) {
	workspace.mu.Lock()
	defer workspace.mu.Unlock()

	if claim.generation != workspace.generation || workspace.owners[claim.PageID] != claim.token {
		return Page{}, ErrStaleClaim
	}
	delete(workspace.owners, claim.PageID)

	_, page := workspace.find(claim.ChapterID, claim.PageID)
	if page == nil {
		return Page{}, ErrStaleClaim
	}

	if failure != nil {
		page.Status = StatusError
		page.Result = nil
		page.Error = failure.Error()
	} else {
		page.Status = StatusDone
		page.Result = pointer.To(result)
		page.Error = ""
	}

	return page.clone(), nil
}

// # Selection

// Select focuses observers on a page.
func (workspace *Workspace) Select(chapterID, pageID string) error {
	workspace.mu.Lock()
	defer workspace.mu.Unlock()

	if _, page := workspace.find(chapterID, pageID); page == nil {
		return ErrPageNotFound
	}

	workspace.selection = Selection{ChapterID: chapterID, PageID: pageID}
	return nil
}

// Selection returns the currently focused page (zero value when none).
func (workspace *Workspace) Selection() Selection {
	workspace.mu.RLock()
	defer workspace.mu.RUnlock()
	return workspace.selection
}

// # Progress

// Stats counts pages by status.
func (workspace *Workspace) Stats() Stats {
	workspace.mu.RLock()
	defer workspace.mu.RUnlock()

	var stats Stats
	for _, chapter := range workspace.chapters {
		stats.Total += len(chapter.Pages)
		stats.Completed += slice.Count(chapter.Pages, hasStatus(StatusDone))
		stats.Failed += slice.Count(chapter.Pages, hasStatus(StatusError))
		stats.Processing += slice.Count(chapter.Pages, hasStatus(StatusProcessing))
	}

	if stats.Total > 0 {
		stats.Percent = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}

// # Internal Helpers

func hasStatus(status Status) func(*Page) bool {
	return func(page *Page) bool { return page.Status == status }
}

// find locates a chapter and page by identity. Callers must hold the lock.
func (workspace *Workspace) find(chapterID, pageID string) (*Chapter, *Page) {
	for _, chapter := range workspace.chapters {
		if chapter.ID != chapterID {
			continue
		}
		for _, page := range chapter.Pages {
			if page.ID == pageID {
				return chapter, page
			}
		}
		return chapter, nil
	}
	return nil, nil
}
