// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package workspace holds the Chapter/Page tree produced by a folder upload and
owns every mutation of page processing state.

# Core Responsibility

  - Ordering: [Chapter] and [Page] slices are stored in reading order.
  - Lifecycle: a new upload replaces the whole tree; nothing is merged.
  - Ownership: a page is processed by at most one caller at a time.

The tree is shared between HTTP handlers and the background queue, so all
access goes through a [Workspace] and callers only ever see copies.
*/
package workspace

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/taibuivan/comicrewriter/pkg/pointer"
)

// # Processing Status

// Status is the processing state of a single page.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusProcessing Status = "PROCESSING"
	StatusDone       Status = "DONE"
	StatusError      Status = "ERROR"
)

// CanTransition reports whether a page may move from s to next.
//
// Status only moves forward IDLE → PROCESSING → {DONE, ERROR}; DONE and
// ERROR may go back to PROCESSING for a retry or reprocess.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusIdle, StatusDone, StatusError:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusDone || next == StatusError
	default:
		return false
	}
}

// # Page Content

// Source opens the raw bytes of a page image.
type Source interface {
	Open() (io.ReadCloser, error)
}

// BytesSource serves page content held in memory (HTTP uploads).
type BytesSource []byte

// Open implements [Source].
func (source BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(source)), nil
}

// FileSource serves page content from a file on disk (CLI runs).
type FileSource string

// Open implements [Source].
func (source FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(source))
}

// ReadSource reads the full content behind a [Source].
func ReadSource(source Source) ([]byte, error) {
	reader, err := source.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// # Tree Nodes

// Page is one image file mapped to a processing record.
type Page struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Path       string  `json:"path"`        // original relative path
	MediaType  string  `json:"media_type"`  // may be empty when the intake did not report one
	PreviewURL string  `json:"preview_url"` // renderable reference, released on replace
	Status     Status  `json:"status"`
	Result     *string `json:"result"` // non-nil only when Status is DONE
	Error      string  `json:"error,omitempty"`

	Source Source `json:"-"`
}

// Chapter is a named, ordered group of pages derived from one folder.
type Chapter struct {
	ID        string
	Name      string
	Pages     []*Page
	Order     float64 // extracted chapter number, +Inf when IsSpecial
	IsSpecial bool    // no chapter number could be extracted
}

// MarshalJSON encodes the infinite order of special chapters as null,
// which plain JSON cannot represent.
func (chapter Chapter) MarshalJSON() ([]byte, error) {
	var order *float64
	if !math.IsInf(chapter.Order, 0) && !math.IsNaN(chapter.Order) {
		value := chapter.Order
		order = &value
	}

	pages := chapter.Pages
	if pages == nil {
		pages = []*Page{}
	}

	return json.Marshal(struct {
		ID        string   `json:"id"`
		Name      string   `json:"name"`
		Order     *float64 `json:"order"`
		IsSpecial bool     `json:"is_special"`
		Pages     []*Page  `json:"pages"`
	}{
		ID:        chapter.ID,
		Name:      chapter.Name,
		Order:     order,
		IsSpecial: chapter.IsSpecial,
		Pages:     pages,
	})
}

// clone returns a deep copy of the chapter, safe to hand out of the lock.
func (chapter *Chapter) clone() Chapter {
	out := *chapter
	out.Pages = make([]*Page, len(chapter.Pages))

	for i, page := range chapter.Pages {
		copied := page.clone()
		out.Pages[i] = &copied
	}

	return out
}

// clone copies the page, including its result.
func (page *Page) clone() Page {
	copied := *page
	if page.Result != nil {
		copied.Result = pointer.To(*page.Result)
	}
	return copied
}
