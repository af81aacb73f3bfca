package runner

import (
	"context"
	"io"
	"os"
	"sync"
	"unicode/utf8"
)

// KeyHandler decodes raw terminal bytes into commands.
//
//	space, enter, right/down arrow, page down  advance
//	left/up arrow, page up, backspace          back
//	escape, q, ctrl+c                          exit
//	any other printable character              key
//
// The terminal should be in raw mode; in cooked mode every line ends with an advance.
type KeyHandler struct {
	source io.Reader

	pump    sync.Once
	chunks  chan readResult
	pending []Command
}

type readResult struct {
	data []byte
	err  error
}

// NewKeyHandler creates a handler reading from r (os.Stdin when nil).
func NewKeyHandler(r io.Reader) *KeyHandler {
	if r == nil {
		r = os.Stdin
	}
	return &KeyHandler{source: r, chunks: make(chan readResult)}
}

// Next returns the next decoded command.
func (h *KeyHandler) Next(ctx context.Context) (Command, error) {
	h.pump.Do(func() { go h.read() })

	for len(h.pending) == 0 {
		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case res, ok := <-h.chunks:
			if !ok {
				return Command{}, io.EOF
			}
			if len(res.data) > 0 {
				h.pending = append(h.pending, DecodeKeys(res.data)...)
			}
			if res.err != nil && len(h.pending) == 0 {
				return Command{}, res.err
			}
		}
	}

	cmd := h.pending[0]
	h.pending = h.pending[1:]
	return cmd, nil
}

// read pumps the blocking reader so Next can honor cancellation.
func (h *KeyHandler) read() {
	defer close(h.chunks)
	buf := make([]byte, 64)
	for {
		n, err := h.source.Read(buf)
		data := append([]byte(nil), buf[:n]...)
		h.chunks <- readResult{data: data, err: err}
		if err != nil {
			return
		}
	}
}

// DecodeKeys turns one read of terminal input into commands.
func DecodeKeys(data []byte) []Command {
	var out []Command
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b == 0x1b:
			cmd, n := decodeEscape(data[i:])
			if cmd.Kind != "" {
				out = append(out, cmd)
			}
			i += n
			continue
		case b == ' ' || b == '\r' || b == '\n':
			out = append(out, Command{Kind: CommandAdvance})
		case b == 0x7f || b == 0x08:
			out = append(out, Command{Kind: CommandBack})
		case b == 0x03:
			out = append(out, Command{Kind: CommandExit})
		case b == 'q':
			// q also reaches an on-key step bound to it; see Session.Execute.
			out = append(out, Command{Kind: CommandExit, Key: "q"})
		case b < 0x20:
			// other control characters
		default:
			r, size := utf8.DecodeRune(data[i:])
			if r != utf8.RuneError {
				out = append(out, Command{Kind: CommandKey, Key: string(r)})
			}
			i += size
			continue
		}
		i++
	}
	return out
}

// decodeEscape reads an escape sequence and returns the command plus the bytes consumed.
func decodeEscape(data []byte) (Command, int) {
	if len(data) == 1 || (data[1] != '[' && data[1] != 'O') {
		return Command{Kind: CommandExit}, 1
	}
	if len(data) < 3 {
		return Command{}, len(data)
	}
	switch data[2] {
	case 'C', 'B':
		return Command{Kind: CommandAdvance}, 3
	case 'D', 'A':
		return Command{Kind: CommandBack}, 3
	case '5', '6':
		if len(data) >= 4 && data[3] == '~' {
			if data[2] == '6' {
				return Command{Kind: CommandAdvance}, 4
			}
			return Command{Kind: CommandBack}, 4
		}
	}
	// Unknown CSI: skip to its final byte.
	n := 2
	for n < len(data) && (data[n] < 0x40 || data[n] > 0x7e) {
		n++
	}
	return Command{}, min(n+1, len(data))
}
