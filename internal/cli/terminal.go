package cli

import (
	"io"
	"os"

	"golang.org/x/term"
)

// rawTerminal puts in into raw mode when it is a terminal so single key presses
// reach the key handler. restore is always safe to call.
func rawTerminal(in io.Reader) (restore func(), ok bool) {
	f, isFile := in.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return func() {}, false
	}
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return func() {}, false
	}
	return func() { _ = term.Restore(int(f.Fd()), state) }, true
}

// terminalWidth returns the width of out, or fallback when it is not a terminal.
func terminalWidth(out io.Writer, fallback int) int {
	f, isFile := out.(*os.File)
	if !isFile {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
