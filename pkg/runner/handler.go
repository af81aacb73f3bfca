package runner

import (
	"context"
	"errors"
)

// CommandKind names what an input asks the session to do.
type CommandKind string

const (
	CommandAdvance CommandKind = "advance"
	CommandBack    CommandKind = "back"
	CommandKey     CommandKind = "key"
	CommandGoTo    CommandKind = "goto"
	CommandPointer CommandKind = "pointer"
	CommandExit    CommandKind = "exit"
)

// Command is one decoded input event.
type Command struct {
	Kind    CommandKind `json:"cmd"`
	Key     string      `json:"key,omitempty"`
	Slide   int         `json:"slide,omitempty"`
	X       float64     `json:"x,omitempty"`
	Y       float64     `json:"y,omitempty"`
	Visible bool        `json:"visible,omitempty"`
}

// ErrInvalidCommand is returned by handlers for input they cannot decode.
// The runner skips such input and keeps reading.
var ErrInvalidCommand = errors.New("invalid command")

// InputHandler abstracts where presenter input comes from (raw keyboard, NDJSON, tests).
type InputHandler interface {
	// Next blocks until the next command, ctx is done, or the input ends (io.EOF).
	Next(ctx context.Context) (Command, error)
}

// InputFunc adapts a function to InputHandler.
type InputFunc func(ctx context.Context) (Command, error)

func (f InputFunc) Next(ctx context.Context) (Command, error) {
	return f(ctx)
}
