// Package persist stores the durable projection of a page's selections.
//
// Storage is a best-effort cache: the live session never rolls back because a
// read or write failed. Writes go through a Saver, which runs them in the
// background so transitions never wait on storage.
package persist

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/chrisuehlinger/multiselect/selection"
)

// StorageKey is the base key selections are saved under.
const StorageKey = "multiSelections"

// ErrPersistence wraps every storage read or write failure.
var ErrPersistence = errors.New("persistence failure")

// Store reads and writes saved selections by key.
type Store interface {
	// Get returns the saved selections for key. The bool is false when
	// nothing has been saved yet.
	Get(ctx context.Context, key string) ([]selection.Saved, bool, error)
	// Set replaces the saved selections for key.
	Set(ctx context.Context, key string, saved []selection.Saved) error
}

// Key returns the storage key for a page. Pages without a URL share the base
// key.
func Key(pageURL string) string {
	if pageURL == "" || pageURL == "about:blank" {
		return StorageKey
	}
	return StorageKey + ":" + pageURL
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]selection.Saved
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]selection.Saved)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]selection.Saved, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	saved, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]selection.Saved(nil), saved...), true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, saved []selection.Saved) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]selection.Saved{}, saved...)
	return nil
}

// Keys lists every key with saved selections, in sorted order.
func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.data)), nil
}
