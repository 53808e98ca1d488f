// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package credential

import (
	"context"
	"sync"

	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
)

// StorageKey is the fixed name the API key is stored under.
const StorageKey = "gemini_api_key"

// ErrNotStored is returned by [Store.Get] when no key has been saved.
var ErrNotStored = apperr.NotFound("API key")

// Store persists the API key under [StorageKey].
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, key string) error
	Delete(ctx context.Context) error
}

// MemoryStore keeps the key for the lifetime of the process.
type MemoryStore struct {
	mu  sync.RWMutex
	key string
}

// NewMemoryStore constructs an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements [Store].
func (store *MemoryStore) Get(context.Context) (string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.key == "" {
		return "", ErrNotStored
	}
	return store.key, nil
}

// Set implements [Store].
func (store *MemoryStore) Set(_ context.Context, key string) error {
	store.mu.Lock()
	store.key = key
	store.mu.Unlock()
	return nil
}

// Delete implements [Store].
func (store *MemoryStore) Delete(context.Context) error {
	store.mu.Lock()
	store.key = ""
	store.mu.Unlock()
	return nil
}
