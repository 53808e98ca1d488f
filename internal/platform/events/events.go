// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package events broadcasts processing progress to WebSocket observers.

Events are fire-and-forget: a slow or broken client is dropped, it never
blocks the queue.
*/
package events

import "time"

// Event types.
const (
	TypeWelcome          = "welcome"
	TypeWorkspaceReplace = "workspace.replaced"
	TypeQueueStarted     = "queue.started"
	TypeQueueFinished    = "queue.finished"
	TypePageStatus       = "page.status"
	TypeSelection        = "selection.changed"
)

// Event is one progress notification.
type Event struct {
	Type      string    `json:"type"`
	BatchID   string    `json:"batch_id,omitempty"`
	ChapterID string    `json:"chapter_id,omitempty"`
	PageID    string    `json:"page_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher accepts events. Implementations must not block for long.
type Publisher interface {
	Publish(event Event)
}

// Discard is a [Publisher] that drops every event.
type Discard struct{}

// Publish implements [Publisher].
func (Discard) Publish(Event) {}
