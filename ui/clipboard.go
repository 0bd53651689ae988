package ui

import (
	"errors"

	"fyne.io/fyne/v2"
)

var errNoClipboard = errors.New("system clipboard unavailable")

// Clipboard writes copied selections to the Fyne application clipboard.
type Clipboard struct {
	cb fyne.Clipboard
}

// NewClipboard wraps cb, usually fyne.App.Clipboard().
func NewClipboard(cb fyne.Clipboard) *Clipboard {
	return &Clipboard{cb: cb}
}

// WriteText implements session.Clipboard.
func (c *Clipboard) WriteText(text string) error {
	if c == nil || c.cb == nil {
		return errNoClipboard
	}
	c.cb.SetContent(text)
	return nil
}
