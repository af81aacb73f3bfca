package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ElementID identifies an element on a slide.
type ElementID string

// Millis is a duration expressed in whole milliseconds, as authored in decks.
type Millis int64

// Duration converts the value to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// MillisOf truncates a time.Duration to whole milliseconds.
func MillisOf(d time.Duration) Millis {
	return Millis(d / time.Millisecond)
}

// DefaultDuration is applied by deck sources when an animation has no authored duration.
const DefaultDuration Millis = 500

// Trigger defines what starts an animation.
type Trigger string

const (
	// TriggerOnEnter plays automatically when the slide is shown. Not part of the step sequence.
	TriggerOnEnter Trigger = "on-enter"
	// TriggerOnClick starts a new step on a generic advance (click, space, right arrow).
	TriggerOnClick Trigger = "on-click"
	// TriggerOnKey starts a new step; the step can also be advanced by pressing Key.
	TriggerOnKey Trigger = "on-key"
	// TriggerAfterPrevious chains onto the current step, starting once the previous animation ends.
	TriggerAfterPrevious Trigger = "after-previous"
	// TriggerWithPrevious chains onto the current step, starting together with the previous animation.
	TriggerWithPrevious Trigger = "with-previous"
)

// IsAnchor reports whether the trigger starts a new step.
func (t Trigger) IsAnchor() bool {
	return t == TriggerOnClick || t == TriggerOnKey
}

// IsChain reports whether the trigger attaches to the current step.
func (t Trigger) IsChain() bool {
	return t == TriggerAfterPrevious || t == TriggerWithPrevious
}

// Valid reports whether the trigger is one of the known values.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerOnEnter, TriggerOnClick, TriggerOnKey, TriggerAfterPrevious, TriggerWithPrevious:
		return true
	}
	return false
}

// Animation is an authored entry of a slide's animation list.
// Animations are immutable once stored in a deck.
type Animation struct {
	Target   ElementID `json:"target" yaml:"target"`
	Trigger  Trigger   `json:"trigger" yaml:"trigger"`
	Effect   string    `json:"effect" yaml:"effect"`
	Delay    Millis    `json:"delay,omitempty" yaml:"delay,omitempty"`
	Duration Millis    `json:"duration" yaml:"duration"`

	// Order is only consulted for on-click anchors.
	Order *int `json:"order,omitempty" yaml:"order,omitempty"`

	// Key is required iff Trigger == on-key. Exactly one character.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
}

// End returns the authored delay plus duration.
func (a Animation) End() Millis {
	return a.Delay + a.Duration
}

// String returns a short human readable description used in error messages and logs.
func (a Animation) String() string {
	if a.Trigger == TriggerOnKey {
		return fmt.Sprintf("%s(%s key=%q %s)", a.Target, a.Trigger, a.Key, a.Effect)
	}
	return fmt.Sprintf("%s(%s %s)", a.Target, a.Trigger, a.Effect)
}

// Validate checks the invariants of a single authored animation.
func (a Animation) Validate() error {
	if !a.Trigger.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTrigger, a.Trigger)
	}
	if a.Delay < 0 || a.Duration < 0 {
		return fmt.Errorf("%w: delay=%d duration=%d", ErrNegativeTiming, a.Delay, a.Duration)
	}
	if a.Trigger == TriggerOnKey {
		if utf8.RuneCountInString(a.Key) != 1 {
			return fmt.Errorf("%w: got %q", ErrMissingKey, a.Key)
		}
		return nil
	}
	if a.Key != "" {
		return fmt.Errorf("%w: %q on %s trigger", ErrUnexpectedKey, a.Key, a.Trigger)
	}
	return nil
}
