package domain

import "time"

// Mode defines whether a session is presenting.
type Mode string

const (
	ModeIdle       Mode = "idle"       // Editor mode
	ModePresenting Mode = "presenting" // Playback is active
)

// PlaybackState is the position of a presentation session.
// ActiveStep == len(steps) means all steps of the slide are consumed.
type PlaybackState struct {
	SlideIndex int `json:"slide_index"`
	ActiveStep int `json:"active_step"`
}

// Pointer is the ephemeral laser pointer position, normalized to [0,1].
type Pointer struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

// Element is a visual item of a slide. Rendering is owned by an external collaborator.
type Element struct {
	ID      ElementID `json:"id" yaml:"id"`
	Kind    string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Content string    `json:"content,omitempty" yaml:"content,omitempty"`
}

// Slide is consumed from the deck store.
type Slide struct {
	ID         string      `json:"id" yaml:"id"`
	Title      string      `json:"title,omitempty" yaml:"title,omitempty"`
	Elements   []Element   `json:"elements" yaml:"elements"`
	Animations []Animation `json:"animations,omitempty" yaml:"animations,omitempty"`
	Notes      string      `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Deck is an ordered list of slides.
type Deck struct {
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Slides []Slide `json:"slides" yaml:"slides"`
}

// Frame is everything a renderer needs to paint one window.
type Frame struct {
	Mode       Mode            `json:"mode"`
	State      PlaybackState   `json:"state"`
	Slide      Slide           `json:"slide"`
	Steps      []AnimationStep `json:"steps"`
	SlideCount int             `json:"slide_count"`
	Elapsed    time.Duration   `json:"elapsed"`
	Pointer    Pointer         `json:"pointer"`
}

// NextStep returns the step that the next advance will play, if any.
func (f Frame) NextStep() (AnimationStep, bool) {
	if f.State.ActiveStep < len(f.Steps) {
		return f.Steps[f.State.ActiveStep], true
	}
	return AnimationStep{}, false
}

// Visible reports whether an element is shown at the active step.
// Elements without a step animation are always visible; elements animated by a step
// appear once that step has been consumed.
func (f Frame) Visible(id ElementID) bool {
	for i, step := range f.Steps {
		for _, a := range step.Animations {
			if a.Target == id {
				return i < f.State.ActiveStep
			}
		}
	}
	return true
}
