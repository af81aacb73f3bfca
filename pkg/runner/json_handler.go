package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/marquee/pkg/domain"
)

// JSONHandler drives a session with JSON-Lines commands and reports frames as JSON-Lines.
//
//	{"cmd":"advance"}
//	{"cmd":"key","key":"v"}
//	{"cmd":"goto","slide":2}
//	{"cmd":"pointer","x":0.4,"y":0.6,"visible":true}
//	{"cmd":"exit"}
//
// Bare words ("advance", "back", "exit") are accepted too.
type JSONHandler struct {
	Reader *bufio.Reader

	mu      sync.Mutex
	encoder *json.Encoder

	pump  sync.Once
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// FrameReport is the JSON line emitted for every rendered frame.
type FrameReport struct {
	Type       string          `json:"type"`
	Mode       domain.Mode     `json:"mode"`
	SlideIndex int             `json:"slide_index"`
	ActiveStep int             `json:"active_step"`
	Steps      int             `json:"steps"`
	SlideCount int             `json:"slide_count"`
	SlideID    string          `json:"slide_id,omitempty"`
	ElapsedMS  int64           `json:"elapsed_ms"`
	Pointer    *domain.Pointer `json:"pointer,omitempty"`
}

// NewJSONHandler creates a handler for JSON IO. nil arguments default to stdin/stdout.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
		lines:   make(chan lineResult),
	}
}

// Next returns the next command. Undecodable lines yield ErrInvalidCommand.
func (h *JSONHandler) Next(ctx context.Context) (Command, error) {
	h.pump.Do(func() { go h.read() })

	for {
		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case res, ok := <-h.lines:
			if !ok {
				return Command{}, io.EOF
			}
			text := strings.TrimSpace(res.text)
			if text == "" {
				if res.err != nil {
					return Command{}, res.err
				}
				continue
			}
			return ParseCommand(text)
		}
	}
}

// Render implements ports.Renderer.
func (h *JSONHandler) Render(_ context.Context, frame domain.Frame) error {
	report := FrameReport{
		Type:       "frame",
		Mode:       frame.Mode,
		SlideIndex: frame.State.SlideIndex,
		ActiveStep: frame.State.ActiveStep,
		Steps:      len(frame.Steps),
		SlideCount: frame.SlideCount,
		SlideID:    frame.Slide.ID,
		ElapsedMS:  frame.Elapsed.Milliseconds(),
	}
	if frame.Pointer.Visible {
		p := frame.Pointer
		report.Pointer = &p
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(report)
}

func (h *JSONHandler) read() {
	defer close(h.lines)
	for {
		text, err := h.Reader.ReadString('\n')
		h.lines <- lineResult{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// ParseCommand decodes one JSON command line or bare command word.
func ParseCommand(text string) (Command, error) {
	var cmd Command
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &cmd); err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
	} else {
		var word string
		if err := json.Unmarshal([]byte(text), &word); err != nil {
			word = text
		}
		cmd.Kind = CommandKind(strings.ToLower(word))
	}

	switch cmd.Kind {
	case CommandAdvance, CommandBack, CommandExit, CommandGoTo, CommandPointer:
	case CommandKey:
		if cmd.Key == "" {
			return Command{}, fmt.Errorf("%w: key command without key", ErrInvalidCommand)
		}
	case "next":
		cmd.Kind = CommandAdvance
	case "prev", "previous":
		cmd.Kind = CommandBack
	case "quit":
		cmd.Kind = CommandExit
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Kind)
	}
	return cmd, nil
}
