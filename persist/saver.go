package persist

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrisuehlinger/multiselect/selection"
)

// DefaultWriteTimeout bounds a single background write.
const DefaultWriteTimeout = 5 * time.Second

// Saver writes snapshots for one key in the background. Callers never wait on
// a write; a write that is overtaken by a newer snapshot is skipped, so the
// newest snapshot always wins.
type Saver struct {
	store   Store
	key     string
	timeout time.Duration
	logger  *slog.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	seq     atomic.Uint64
	written uint64
	failed  atomic.Uint64
}

// NewSaver creates a Saver writing to key in store. A nil logger uses
// slog.Default().
func NewSaver(store Store, key string, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		store:   store,
		key:     key,
		timeout: DefaultWriteTimeout,
		logger:  logger.With("component", "persist", "key", key),
	}
}

// Save schedules a write of saved. It returns immediately.
func (s *Saver) Save(saved []selection.Saved) {
	n := s.seq.Add(1)
	snapshot := append([]selection.Saved{}, saved...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if n < s.written {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.store.Set(ctx, s.key, snapshot); err != nil {
			s.failed.Add(1)
			s.logger.Warn("failed to save selections", "error", err)
			return
		}
		s.written = n
	}()
}

// Flush waits for every scheduled write to finish.
func (s *Saver) Flush() {
	s.wg.Wait()
}

// Failures returns the number of writes that failed.
func (s *Saver) Failures() uint64 {
	return s.failed.Load()
}

// Load reads the saved selections for key. Read failures are logged and
// treated as "nothing saved".
func Load(ctx context.Context, store Store, key string, logger *slog.Logger) []selection.Saved {
	if logger == nil {
		logger = slog.Default()
	}
	saved, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("failed to load selections", "component", "persist", "key", key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return saved
}
