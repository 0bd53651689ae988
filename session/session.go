// Package session ties the selection engine together for one page load.
//
// A Session owns the document, the selection store, the highlight renderer,
// the restoration pipeline, the lock flag and the background saver. All of
// its transitions must run on the session's loop; the capture dispatcher and
// the command channel take care of posting there.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chrisuehlinger/multiselect/capture"
	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/highlight"
	"github.com/chrisuehlinger/multiselect/locator"
	"github.com/chrisuehlinger/multiselect/loop"
	"github.com/chrisuehlinger/multiselect/persist"
	"github.com/chrisuehlinger/multiselect/restore"
	"github.com/chrisuehlinger/multiselect/selection"
	"github.com/chrisuehlinger/multiselect/settings"
)

// Clipboard accepts text for copy actions.
type Clipboard interface {
	WriteText(text string) error
}

// ErrNoClipboard is reported by Copy when the session has no clipboard.
var ErrNoClipboard = errors.New("no clipboard available")

// Config holds a session's collaborators. Only Document is required.
type Config struct {
	Document    *dom.Document
	Loop        *loop.Loop
	Settings    settings.Store
	Persistence persist.Store
	// StorageKey defaults to persist.Key of the document URL, or to
	// persist.StorageKey when SharedKey is set.
	StorageKey string
	// SharedKey keeps every page's selections under the one base key.
	SharedKey bool
	Clipboard Clipboard
	// NotifyDuration is how long notifications stay up. Default: 2.2s.
	NotifyDuration time.Duration
	// Debounce is the capture delay. Default: capture.DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Session is the per-page selection context.
type Session struct {
	doc       *dom.Document
	loop      *loop.Loop
	settings  settings.Store
	persist   persist.Store
	key       string
	clipboard Clipboard
	logger    *slog.Logger

	renderer   *highlight.Renderer
	store      *selection.Store
	pipeline   *restore.Pipeline
	saver      *persist.Saver
	dispatcher *capture.Dispatcher
	notifier   *notifier

	locked      bool
	unsubscribe func()

	mu       sync.Mutex
	onChange func()
}

// New assembles a session. Call Open before dispatching events to it.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Loop == nil {
		cfg.Loop = loop.New(loop.WithLogger(logger))
	}
	if cfg.Settings == nil {
		cfg.Settings = settings.NewMemoryStore(settings.Defaults())
	}
	if cfg.Persistence == nil {
		cfg.Persistence = persist.NewMemoryStore()
	}
	switch {
	case cfg.StorageKey != "":
	case cfg.SharedKey:
		cfg.StorageKey = persist.StorageKey
	default:
		cfg.StorageKey = persist.Key(cfg.Document.URL())
	}
	if cfg.NotifyDuration <= 0 {
		cfg.NotifyDuration = DefaultNotifyDuration
	}

	s := &Session{
		doc:       cfg.Document,
		loop:      cfg.Loop,
		settings:  cfg.Settings,
		persist:   cfg.Persistence,
		key:       cfg.StorageKey,
		clipboard: cfg.Clipboard,
		logger:    logger.With("component", "session", "url", cfg.Document.URL()),
	}

	codec := locator.NewCodec(s.doc)
	s.renderer = highlight.NewRenderer(s.doc, logger)
	s.store = selection.NewStore(codec, s.renderer, logger)
	s.pipeline = restore.NewPipeline(codec, s.renderer, s.store, logger)
	s.saver = persist.NewSaver(s.persist, s.key, logger)
	s.store.SetSaver(func(saved []selection.Saved) {
		s.saver.Save(saved)
		s.changed()
	})
	s.notifier = newNotifier(s.doc, s.loop, cfg.NotifyDuration, s.changed)
	s.dispatcher = capture.New(s.loop, s, capture.Config{
		Modifier: s.settings.Current().ModifierKey,
		Debounce: cfg.Debounce,
		Logger:   logger,
	})
	return s
}

// Open reads the saved selections once, restores them, injects the
// highlight style and subscribes to settings changes. It runs on the
// caller's goroutine and must finish before events are dispatched.
func (s *Session) Open(ctx context.Context) restore.Report {
	saved := persist.Load(ctx, s.persist, s.key, s.logger)
	report := s.pipeline.RestoreAll(saved)
	s.applySettings(s.settings.Current())

	s.unsubscribe = s.settings.OnChange(func(next settings.Settings) {
		s.loop.Post(func() { s.applySettings(next) })
	})
	return report
}

// Close unsubscribes from settings changes and waits for pending saves.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.saver.Flush()
}

// Flush waits for pending saves.
func (s *Session) Flush() {
	s.saver.Flush()
}

func (s *Session) applySettings(cfg settings.Settings) {
	s.renderer.ApplyStyle(cfg.HighlightColor)
	s.dispatcher.SetModifier(cfg.ModifierKey)
	s.changed()
}

// SetOnChange registers fn to run on the loop after every change to the
// selections, the lock flag, the notification or the settings. It may be
// called from any goroutine.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Session) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Document returns the session's document.
func (s *Session) Document() *dom.Document { return s.doc }

// Loop returns the session's loop.
func (s *Session) Loop() *loop.Loop { return s.loop }

// Store returns the selection store.
func (s *Session) Store() *selection.Store { return s.store }

// Renderer returns the highlight renderer.
func (s *Session) Renderer() *highlight.Renderer { return s.renderer }

// Dispatcher returns the capture dispatcher that drives this session.
func (s *Session) Dispatcher() *capture.Dispatcher { return s.dispatcher }

// StorageKey returns the key selections are saved under.
func (s *Session) StorageKey() string { return s.key }

// Locked reports whether background clicks are ignored.
func (s *Session) Locked() bool { return s.locked }

// Len returns the number of selections.
func (s *Session) Len() int { return s.store.Len() }

// CaptureActive captures the document's current selection and then clears
// it, whether or not the capture succeeded.
func (s *Session) CaptureActive() {
	sel := s.doc.GetSelection()
	if sel.RangeCount() == 0 {
		return
	}
	r, err := sel.GetRangeAt(0)
	if err != nil {
		return
	}
	defer sel.RemoveAllRanges()

	if _, err := s.Capture(r.CloneRange()); err != nil {
		s.logger.Debug("selection not captured", "error", err)
	}
}

// Capture records r as a new selection.
func (s *Session) Capture(r *dom.Range) (selection.Record, error) {
	return s.store.Capture(r)
}

// Undo removes the most recent selection.
func (s *Session) Undo() {
	if _, ok := s.store.Undo(); ok {
		s.notifier.show("Selection undone.")
	}
}

// Redo restores the most recently undone selection. An empty redo stack is
// a silent no-op.
func (s *Session) Redo() {
	_, err := s.store.Redo()
	switch {
	case err == nil:
		s.notifier.show("Selection redone.")
	case errors.Is(err, selection.ErrNothingToRedo):
	case errors.Is(err, locator.ErrUnresolvable):
		s.logger.Warn("redo failed", "error", err)
		s.notifier.show("Redo failed: Selection data invalid.")
	case errors.Is(err, highlight.ErrUnmarkable):
		s.logger.Warn("redo failed", "error", err)
		s.notifier.show("Redo failed: Could not re-highlight.")
	default:
		s.logger.Warn("redo failed", "error", err)
		s.notifier.show("Redo failed: " + err.Error())
	}
}

// ClearAll removes every selection and marker.
func (s *Session) ClearAll() {
	s.store.ClearAll()
}

// ToggleLock flips the lock flag. Selections are never touched.
func (s *Session) ToggleLock() {
	s.locked = !s.locked
	if s.locked {
		s.notifier.show("Selections locked.")
	} else {
		s.notifier.show("Selections unlocked.")
	}
}

// Copy writes the selections to the clipboard, formatted per the copyMode
// setting. Failures are reported through a notification.
func (s *Session) Copy() {
	text := s.CopyText()
	var err error
	if s.clipboard == nil {
		err = ErrNoClipboard
	} else {
		err = s.clipboard.WriteText(text)
	}
	if err != nil {
		s.logger.Warn("copy failed", "error", err)
		s.notifier.show(fmt.Sprintf("Copy failed: %v", err))
		return
	}
	s.notifier.show("Selected texts copied!")
}

// CopyText returns what Copy would write.
func (s *Session) CopyText() string {
	return settings.FormatCopy(s.store.Texts(), s.settings.Current().CopyMode)
}
