package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// MessageType tags a ChannelMessage variant.
type MessageType string

const (
	MessageNavigate    MessageType = "navigate"
	MessageExit        MessageType = "exit"
	MessageSyncRequest MessageType = "sync-request"
	MessagePointer     MessageType = "pointer"
)

// ChannelMessage is the tagged union exchanged between paired windows.
// It exists only on the wire and is never persisted.
type ChannelMessage struct {
	Type MessageType

	// State is set for MessageNavigate.
	State PlaybackState

	// Pointer is set for MessagePointer.
	Pointer Pointer
}

// NavigateMessage mirrors a playback position.
func NavigateMessage(state PlaybackState) ChannelMessage {
	return ChannelMessage{Type: MessageNavigate, State: state}
}

// ExitMessage asks the paired window to leave the presentation.
func ExitMessage() ChannelMessage {
	return ChannelMessage{Type: MessageExit}
}

// SyncRequestMessage asks the paired window to answer with its current position.
func SyncRequestMessage() ChannelMessage {
	return ChannelMessage{Type: MessageSyncRequest}
}

// PointerMessage mirrors the laser pointer. Coordinates are clamped to [0,1].
func PointerMessage(x, y float64, visible bool) ChannelMessage {
	return ChannelMessage{Type: MessagePointer, Pointer: Pointer{X: clamp01(x), Y: clamp01(y), Visible: visible}}
}

func (m ChannelMessage) String() string {
	switch m.Type {
	case MessageNavigate:
		return fmt.Sprintf("navigate{%d,%d}", m.State.SlideIndex, m.State.ActiveStep)
	case MessagePointer:
		return fmt.Sprintf("pointer{%.3f,%.3f,%t}", m.Pointer.X, m.Pointer.Y, m.Pointer.Visible)
	}
	return string(m.Type)
}

// wireMessage is the flat JSON form shared with browser windows.
type wireMessage struct {
	Type       MessageType `json:"type"`
	SlideIndex *int        `json:"slideIndex,omitempty"`
	ActiveStep *int        `json:"activeStep,omitempty"`
	X          *float64    `json:"x,omitempty"`
	Y          *float64    `json:"y,omitempty"`
	Visible    *bool       `json:"visible,omitempty"`
}

// MarshalJSON encodes the message in its wire form.
func (m ChannelMessage) MarshalJSON() ([]byte, error) {
	w := wireMessage{Type: m.Type}
	switch m.Type {
	case MessageNavigate:
		w.SlideIndex = &m.State.SlideIndex
		w.ActiveStep = &m.State.ActiveStep
	case MessagePointer:
		x, y := clamp01(m.Pointer.X), clamp01(m.Pointer.Y)
		w.X, w.Y, w.Visible = &x, &y, &m.Pointer.Visible
	case MessageExit, MessageSyncRequest:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form. Unrecognized shapes yield ErrUnknownMessage.
func (m *ChannelMessage) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}
	switch w.Type {
	case MessageNavigate:
		if w.SlideIndex == nil || w.ActiveStep == nil || *w.SlideIndex < 0 || *w.ActiveStep < 0 {
			return fmt.Errorf("%w: malformed navigate", ErrUnknownMessage)
		}
		*m = NavigateMessage(PlaybackState{SlideIndex: *w.SlideIndex, ActiveStep: *w.ActiveStep})
	case MessagePointer:
		if w.X == nil || w.Y == nil {
			return fmt.Errorf("%w: malformed pointer", ErrUnknownMessage)
		}
		visible := w.Visible != nil && *w.Visible
		*m = PointerMessage(*w.X, *w.Y, visible)
	case MessageExit:
		*m = ExitMessage()
	case MessageSyncRequest:
		*m = SyncRequestMessage()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, w.Type)
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
