// Package ui provides a Fyne window for reading a page and making
// multi-selections on it.
package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/chrisuehlinger/multiselect/capture"
	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/session"
)

// Viewer shows a session's document one block per line and feeds the
// window's keyboard and mouse into the session's capture dispatcher.
type Viewer struct {
	app     fyne.App
	window  fyne.Window
	session *session.Session
	logger  *slog.Logger

	lines  *fyne.Container
	views  []*blockView
	status *widget.Label
	notice *widget.Label

	mods modifierState
}

// NewViewer creates the viewer window for s. The session must already be
// open.
func NewViewer(a fyne.App, s *session.Session, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	title := s.Document().URL()
	if title == "" {
		title = "Multi-select"
	}
	v := &Viewer{
		app:     a,
		window:  a.NewWindow(title),
		session: s,
		logger:  logger.With("component", "ui"),
		lines:   container.NewVBox(),
		status:  widget.NewLabel(""),
		notice:  widget.NewLabel(""),
	}
	v.window.Resize(fyne.NewSize(960, 720))

	v.setupUI()
	v.setupKeyboard()

	s.SetOnChange(v.refresh)
	s.Loop().Post(v.refresh)
	return v
}

// Window returns the viewer window.
func (v *Viewer) Window() fyne.Window {
	return v.window
}

// ShowAndRun shows the window and runs the application.
func (v *Viewer) ShowAndRun() {
	v.window.ShowAndRun()
}

func (v *Viewer) setupUI() {
	clearBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		v.session.Loop().Post(v.session.ClearAll)
	})
	undoBtn := widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() {
		v.session.Loop().Post(v.session.Undo)
	})
	redoBtn := widget.NewButtonWithIcon("", theme.ContentRedoIcon(), func() {
		v.session.Loop().Post(v.session.Redo)
	})
	copyBtn := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
		v.session.Loop().Post(func() {
			if v.session.Len() > 0 {
				v.session.Copy()
			}
		})
	})

	toolbar := container.NewBorder(nil, nil,
		container.NewHBox(undoBtn, redoBtn, copyBtn, clearBtn),
		v.notice,
		v.status,
	)

	page := container.NewStack(newBackdrop(v), v.lines)
	v.window.SetContent(container.NewBorder(toolbar, nil, nil, nil, container.NewVScroll(page)))
}

func (v *Viewer) setupKeyboard() {
	// Ctrl+W: close the window
	v.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyW,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(_ fyne.Shortcut) {
		v.window.Close()
	})

	dc, ok := v.window.Canvas().(desktop.Canvas)
	if !ok {
		return
	}
	d := v.session.Dispatcher()
	dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
		d.KeyDown(capture.KeyEvent{Name: ev.Name, Modifier: v.mods.press(ev.Name)})
	})
	dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
		d.KeyUp(capture.KeyEvent{Name: ev.Name, Modifier: v.mods.release(ev.Name)})
	})
}

// release turns a mouse release over a block into an active selection
// followed by a mouse-up event. el is nil for releases over the background.
func (v *Viewer) release(el *dom.Element, anchor, focus int, button desktop.MouseButton) {
	if el != nil && button == desktop.MouseButtonPrimary {
		doc := v.session.Document()
		v.session.Loop().Post(func() {
			if err := SelectRange(doc, el, anchor, focus); err != nil {
				v.logger.Debug("selection not set", "error", err)
			}
		})
	}
	v.session.Dispatcher().MouseUp(capture.MouseEvent{Button: button})
}

// refresh snapshots the document on the loop and hands it to the UI thread.
func (v *Viewer) refresh() {
	blocks := Blocks(v.session.Document())
	status := statusText(v.session.Len(), v.session.Locked())
	notice := v.session.LastNotification()
	fyne.Do(func() {
		v.apply(blocks, status, notice)
	})
}

func (v *Viewer) apply(blocks []Block, status, notice string) {
	for len(v.views) < len(blocks) {
		bv := newBlockView(v)
		v.views = append(v.views, bv)
		v.lines.Add(bv)
	}
	for len(v.views) > len(blocks) {
		last := v.views[len(v.views)-1]
		v.lines.Remove(last)
		v.views = v.views[:len(v.views)-1]
	}
	for i, b := range blocks {
		v.views[i].set(b)
	}
	v.status.SetText(status)
	v.notice.SetText(notice)
}

func statusText(count int, locked bool) string {
	var sb strings.Builder
	switch count {
	case 0:
		sb.WriteString("No selections")
	case 1:
		sb.WriteString("1 selection")
	default:
		fmt.Fprintf(&sb, "%d selections", count)
	}
	if locked {
		sb.WriteString(" (locked)")
	}
	return sb.String()
}

// modifierState tracks which modifier keys are held, since key events do
// not carry them.
type modifierState struct {
	held fyne.KeyModifier
}

func modifierFor(name fyne.KeyName) fyne.KeyModifier {
	switch name {
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		return fyne.KeyModifierControl
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		return fyne.KeyModifierShift
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		return fyne.KeyModifierAlt
	case desktop.KeySuperLeft, desktop.KeySuperRight:
		return fyne.KeyModifierSuper
	}
	return 0
}

func (m *modifierState) press(name fyne.KeyName) fyne.KeyModifier {
	m.held |= modifierFor(name)
	return m.held
}

func (m *modifierState) release(name fyne.KeyName) fyne.KeyModifier {
	m.held &^= modifierFor(name)
	return m.held
}
