package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStart       EventType = "start"
	EventStepChange  EventType = "step_change"
	EventSlideChange EventType = "slide_change"
	EventExit        EventType = "exit"
)

// Origin tells whether a state change came from local input or from the paired window.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// PlaybackEvent describes a transition of the playback state.
type PlaybackEvent struct {
	EventBase
	From   PlaybackState `json:"from"`
	To     PlaybackState `json:"to"`
	Steps  int           `json:"steps"`
	Origin Origin        `json:"origin"`
}

// LifecycleHooks defines callbacks for playback observability.
type LifecycleHooks struct {
	OnStart       func(context.Context, *PlaybackEvent)
	OnStepChange  func(context.Context, *PlaybackEvent)
	OnSlideChange func(context.Context, *PlaybackEvent)
	OnExit        func(context.Context, *PlaybackEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	chain := func(a, b func(context.Context, *PlaybackEvent)) func(context.Context, *PlaybackEvent) {
		if a == nil {
			return b
		}
		if b == nil {
			return a
		}
		return func(ctx context.Context, e *PlaybackEvent) {
			a(ctx, e)
			b(ctx, e)
		}
	}
	return LifecycleHooks{
		OnStart:       chain(h.OnStart, other.OnStart),
		OnStepChange:  chain(h.OnStepChange, other.OnStepChange),
		OnSlideChange: chain(h.OnSlideChange, other.OnSlideChange),
		OnExit:        chain(h.OnExit, other.OnExit),
	}
}
