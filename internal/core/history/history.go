// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package history archives the outcome of every processed page.

The in-memory tree only holds the latest upload; history keeps results of
earlier batches so they survive a new upload or a restart. It is optional:
without a database the [Noop] recorder is used.
*/
package history

import (
	"context"
	"time"
)

// Entry is one finished processing attempt.
type Entry struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	ChapterID  string    `json:"chapter_id"`
	PageID     string    `json:"page_id"`
	PageName   string    `json:"page_name"`
	PagePath   string    `json:"page_path"`
	Status     string    `json:"status"`
	Result     *string   `json:"result"`
	Error      string    `json:"error,omitempty"`
	Language   string    `json:"language"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter narrows a history listing.
type Filter struct {
	BatchID string
	PageID  string
	Status  string
}

// Recorder receives finished attempts.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Noop is a [Recorder] that discards entries.
type Noop struct{}

// Record implements [Recorder].
func (Noop) Record(context.Context, Entry) error { return nil }

// Repository persists and lists entries.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error)
}
