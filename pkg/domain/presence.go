package domain

import (
	"errors"
	"time"
)

// ErrPresenceNotFound is returned when no live presentation is announced on a topic.
var ErrPresenceNotFound = errors.New("presentation not found")

// Presence announces a live presentation so followers can discover it.
type Presence struct {
	Topic      string        `json:"topic"`
	Title      string        `json:"title,omitempty"`
	State      PlaybackState `json:"state"`
	SlideCount int           `json:"slide_count"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
