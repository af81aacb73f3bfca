package ports

import (
	"context"

	"github.com/aretw0/marquee/pkg/domain"
)

// DeckSource defines how the engine reads the deck being presented.
// The deck store itself (CRUD, undo-redo, persistence) stays outside the engine.
type DeckSource interface {
	// SlideCount returns the number of slides.
	SlideCount() int

	// Slide returns the slide at index i.
	// Returns domain.ErrSlideOutOfRange for indexes outside [0, SlideCount()).
	Slide(i int) (domain.Slide, error)
}

// Watchable defines an interface for deck sources that can notify about backend changes.
// This is typically used to drop cached steps when an author edits the deck mid-session.
type Watchable interface {
	// Watch returns a channel that is signaled with the changed slide ID (or path).
	Watch(ctx context.Context) (<-chan string, error)
}
