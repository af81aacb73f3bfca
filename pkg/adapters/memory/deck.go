package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/marquee/pkg/domain"
)

// Deck implements ports.DeckSource using an in-memory slide list.
// Safe for concurrent use. Edits notify watchers, which makes it usable as an editor backend.
type Deck struct {
	mu       sync.RWMutex
	title    string
	slides   []domain.Slide
	watchers map[chan string]struct{}
}

// NewDeck creates a deck from slides. Values are copied.
func NewDeck(slides ...domain.Slide) *Deck {
	d := &Deck{watchers: make(map[chan string]struct{})}
	for _, s := range slides {
		d.slides = append(d.slides, cloneSlide(s))
	}
	return d
}

// NewFromDeck creates a deck from a domain.Deck.
func NewFromDeck(deck domain.Deck) *Deck {
	d := NewDeck(deck.Slides...)
	d.title = deck.Title
	return d
}

// Title returns the deck title.
func (d *Deck) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

// SlideCount returns the number of slides.
func (d *Deck) SlideCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slides)
}

// Slide returns a copy of the slide at index i.
func (d *Deck) Slide(i int) (domain.Slide, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.slides) {
		return domain.Slide{}, fmt.Errorf("%w: %d of %d", domain.ErrSlideOutOfRange, i, len(d.slides))
	}
	return cloneSlide(d.slides[i]), nil
}

// SetAnimations replaces the animation list of slide i and notifies watchers.
func (d *Deck) SetAnimations(i int, animations []domain.Animation) error {
	d.mu.Lock()
	if i < 0 || i >= len(d.slides) {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", domain.ErrSlideOutOfRange, i, len(d.slides))
	}
	d.slides[i].Animations = slices.Clone(animations)
	id := d.slides[i].ID
	d.mu.Unlock()

	d.notify(id)
	return nil
}

// Append adds a slide at the end of the deck and notifies watchers.
func (d *Deck) Append(slide domain.Slide) {
	d.mu.Lock()
	d.slides = append(d.slides, cloneSlide(slide))
	d.mu.Unlock()

	d.notify(slide.ID)
}

// Watch emits the ID of every edited slide until ctx is done.
func (d *Deck) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)

	d.mu.Lock()
	d.watchers[ch] = struct{}{}
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		delete(d.watchers, ch)
		close(ch)
		d.mu.Unlock()
	}()
	return ch, nil
}

func (d *Deck) notify(id string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for ch := range d.watchers {
		select {
		case ch <- id:
		default:
		}
	}
}

func cloneSlide(s domain.Slide) domain.Slide {
	s.Elements = slices.Clone(s.Elements)
	s.Animations = slices.Clone(s.Animations)
	return s
}
