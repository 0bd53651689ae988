package settings

import (
	"reflect"
	"sync"
)

// Store is a settings dictionary with change notification.
type Store interface {
	// Get returns the requested keys, or every key when none are given.
	Get(keys ...string) map[string]any
	// Set updates the given keys and notifies subscribers.
	Set(values map[string]any) error
	// OnChange registers fn to run after every change. The returned func
	// removes the subscription.
	OnChange(fn func(Settings)) (cancel func())
	// Current returns the current snapshot.
	Current() Settings
}

// hub holds the current snapshot and its subscribers. The memory and file
// stores share it.
type hub struct {
	mu        sync.RWMutex
	current   Settings
	listeners map[int]func(Settings)
	nextID    int
}

func newHub(s Settings) *hub {
	s.applyDefaults()
	return &hub{current: s, listeners: make(map[int]func(Settings))}
}

func (h *hub) Current() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.clone()
}

func (h *hub) Get(keys ...string) map[string]any {
	all := h.Current().Map()
	if len(keys) == 0 {
		return all
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out
}

func (h *hub) OnChange(fn func(Settings)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// update applies values to a copy of the snapshot, lets commit persist it,
// then publishes it and notifies subscribers outside the lock.
func (h *hub) update(values map[string]any, commit func(Settings) error) error {
	h.mu.Lock()
	next := h.current.clone()
	if err := next.Apply(values); err != nil {
		h.mu.Unlock()
		return err
	}
	if commit != nil {
		if err := commit(next); err != nil {
			h.mu.Unlock()
			return err
		}
	}
	h.current = next
	listeners := make([]func(Settings), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(next.clone())
	}
	return nil
}

// replace swaps in a whole snapshot, as read from disk, and notifies
// subscribers when it differs from the current one.
func (h *hub) replace(s Settings) bool {
	s.applyDefaults()
	h.mu.Lock()
	if equal(h.current, s) {
		h.mu.Unlock()
		return false
	}
	h.current = s
	listeners := make([]func(Settings), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(s.clone())
	}
	return true
}

func equal(a, b Settings) bool {
	return a.ModifierKey == b.ModifierKey &&
		a.HighlightColor == b.HighlightColor &&
		a.CopyMode == b.CopyMode &&
		a.MultiSearch == b.MultiSearch &&
		a.CombinedSearch == b.CombinedSearch &&
		(len(a.Extra) == 0 && len(b.Extra) == 0 || reflect.DeepEqual(a.Extra, b.Extra))
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	*hub
}

// NewMemoryStore creates a store holding initial, with defaults filled in.
func NewMemoryStore(initial Settings) *MemoryStore {
	return &MemoryStore{hub: newHub(initial)}
}

// Set implements Store.
func (m *MemoryStore) Set(values map[string]any) error {
	return m.update(values, nil)
}
