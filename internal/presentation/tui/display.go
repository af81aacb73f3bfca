package tui

import (
	"context"
	"io"
	"sync"

	"github.com/muesli/termenv"
)

// TerminalDisplay implements ports.Display with the terminal's alternate screen.
type TerminalDisplay struct {
	out    *termenv.Output
	mu     sync.Mutex
	active bool
}

// NewTerminalDisplay creates a display writing control sequences to w.
func NewTerminalDisplay(w io.Writer) *TerminalDisplay {
	return &TerminalDisplay{out: termenv.NewOutput(w)}
}

// RequestFullscreen switches to the alternate screen and hides the cursor.
func (d *TerminalDisplay) RequestFullscreen(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return nil
	}
	d.out.AltScreen()
	d.out.HideCursor()
	d.active = true
	return nil
}

// ExitFullscreen restores the main screen. Calling it while not full-screen is a no-op.
func (d *TerminalDisplay) ExitFullscreen(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return nil
	}
	d.out.ShowCursor()
	d.out.ExitAltScreen()
	d.active = false
	return nil
}

// Fullscreen reports whether the alternate screen is active.
func (d *TerminalDisplay) Fullscreen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}
