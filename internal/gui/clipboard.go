package gui

import (
	"fyne.io/fyne/v2"

	"github.com/jmylchreest/colorhunter/internal/session"
)

// Clipboard copies text to the system clipboard of a fyne window.
type Clipboard struct {
	win fyne.Window
}

var _ session.Clipboard = (*Clipboard)(nil)

// NewClipboard creates a Clipboard bound to win.
func NewClipboard(win fyne.Window) *Clipboard {
	return &Clipboard{win: win}
}

// Copy implements session.Clipboard. fyne's clipboard has no failure mode,
// so Copy always returns nil.
func (c *Clipboard) Copy(text string) error {
	c.win.Clipboard().SetContent(text)
	return nil
}
