// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package preview hands out renderable references to uploaded page images.

Each reference is a URL served by this process. References are explicitly
released when their pages are discarded, so repeated uploads in a long-lived
session do not accumulate image buffers.
*/
package preview

import (
	"strings"
	"sync"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/pkg/uuid"
)

// DefaultPrefix is the URL prefix under which previews are served.
const DefaultPrefix = "/api/v1/previews/"

type entry struct {
	source    workspace.Source
	mediaType string
}

// Registry maps preview identifiers to page content.
//
// # Concurrency
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	prefix  string
}

// NewRegistry constructs an empty [Registry] whose references start with prefix.
func NewRegistry(prefix string) *Registry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Registry{
		entries: make(map[string]entry),
		prefix:  prefix,
	}
}

// Allocate registers source and returns its renderable reference.
func (registry *Registry) Allocate(source workspace.Source, mediaType string) string {
	id := uuid.New()

	registry.mu.Lock()
	registry.entries[id] = entry{source: source, mediaType: mediaType}
	registry.mu.Unlock()

	return registry.prefix + id
}

// Release revokes references. Unknown references are ignored.
func (registry *Registry) Release(refs ...string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for _, ref := range refs {
		delete(registry.entries, strings.TrimPrefix(ref, registry.prefix))
	}
}

// Lookup resolves a preview identifier (the part after the prefix).
func (registry *Registry) Lookup(id string) (workspace.Source, string, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	found, ok := registry.entries[id]
	return found.source, found.mediaType, ok
}

// Len reports how many references are currently live.
func (registry *Registry) Len() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.entries)
}
