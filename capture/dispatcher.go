// Package capture turns raw keyboard and mouse events into selection
// transitions.
//
// Holding the configured modifier arms multi-select. A primary-button release
// while armed schedules a capture of the document's active selection after a
// short debounce, so a burst of boundary adjustments yields one capture of the
// final state. A release while not armed clears every selection unless they
// are locked. While armed, the shortcuts in Shortcuts drive undo, redo, lock
// and copy.
package capture

import (
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2/driver/desktop"

	"github.com/chrisuehlinger/multiselect/loop"
	"github.com/chrisuehlinger/multiselect/settings"
)

// DefaultDebounce is the delay between a mouse release and the capture.
const DefaultDebounce = 80 * time.Millisecond

// Target receives the transitions the dispatcher decides on. All calls are
// made on the dispatcher's loop.
type Target interface {
	CaptureActive()
	Undo()
	Redo()
	ToggleLock()
	Copy()
	ClearAll()
	Locked() bool
	Len() int
}

// Dispatcher routes events to a Target. Its exported methods may be called
// from any goroutine; the work runs on the loop.
type Dispatcher struct {
	loop     *loop.Loop
	target   Target
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	modifier string

	armed   bool
	pending int
}

// Config configures a Dispatcher.
type Config struct {
	// Modifier is the modifierKey setting. Default: settings.DefaultModifierKey.
	Modifier string
	// Debounce is the capture delay. Default: DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Modifier == "" {
		c.Modifier = settings.DefaultModifierKey
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates a dispatcher posting to l.
func New(l *loop.Loop, target Target, cfg Config) *Dispatcher {
	cfg.defaults()
	return &Dispatcher{
		loop:     l,
		target:   target,
		debounce: cfg.Debounce,
		modifier: cfg.Modifier,
		logger:   cfg.Logger.With("component", "capture"),
	}
}

// SetModifier changes which key arms multi-select.
func (d *Dispatcher) SetModifier(setting string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modifier = setting
}

func (d *Dispatcher) modifierSetting() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modifier
}

// KeyDown handles a key press.
func (d *Dispatcher) KeyDown(ev KeyEvent) {
	d.loop.Post(func() { d.keyDown(ev) })
}

// KeyUp handles a key release.
func (d *Dispatcher) KeyUp(ev KeyEvent) {
	d.loop.Post(func() { d.keyUp(ev) })
}

// MouseUp handles a mouse button release.
func (d *Dispatcher) MouseUp(ev MouseEvent) {
	d.loop.Post(func() { d.mouseUp(ev) })
}

// Armed reports whether the modifier is held. It must be called on the loop.
func (d *Dispatcher) Armed() bool {
	return d.armed
}

func (d *Dispatcher) keyDown(ev KeyEvent) {
	if IsModifierKey(d.modifierSetting(), ev.Name) {
		d.armed = true
		return
	}
	if !d.armed {
		return
	}

	action, ok := Match(ev)
	if !ok {
		return
	}
	d.logger.Debug("shortcut", "action", action)
	switch action {
	case ActionUndo:
		d.target.Undo()
	case ActionRedo:
		d.target.Redo()
	case ActionToggleLock:
		d.target.ToggleLock()
	case ActionCopy:
		if d.target.Len() > 0 {
			d.target.Copy()
		}
	}
}

func (d *Dispatcher) keyUp(ev KeyEvent) {
	if IsModifierKey(d.modifierSetting(), ev.Name) {
		d.armed = false
	}
}

func (d *Dispatcher) mouseUp(ev MouseEvent) {
	if d.armed {
		if ev.Button != desktop.MouseButtonPrimary {
			return
		}
		if d.pending != 0 {
			d.loop.ClearTimeout(d.pending)
		}
		d.pending = d.loop.SetTimeout(func() {
			d.pending = 0
			d.target.CaptureActive()
		}, d.debounce)
		return
	}

	if !d.target.Locked() && d.target.Len() > 0 {
		d.logger.Debug("background click clears selections", "count", d.target.Len())
		d.target.ClearAll()
	}
}
