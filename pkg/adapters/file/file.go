// Package file loads a whole deck from a single YAML or JSON document.
//
// Example:
//
//	title: Quarterly review
//	slides:
//	  - id: intro
//	    elements:
//	      - {id: title, kind: text, content: Q3}
//	    animations:
//	      - {target: title, trigger: on-click, effect: fade-in, duration: 400ms}
package file

import (
	"fmt"
	"os"

	"github.com/aretw0/marquee/internal/deckspec"
	"github.com/aretw0/marquee/pkg/adapters/memory"
	"github.com/aretw0/marquee/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Option configures parsing.
type Option func(*deckspec.Options)

// WithDefaultDuration sets the duration of animations that do not author one.
func WithDefaultDuration(d domain.Millis) Option {
	return func(o *deckspec.Options) {
		o.DefaultDuration = d
	}
}

// Parse decodes a YAML or JSON deck document.
func Parse(data []byte, opts ...Option) (domain.Deck, error) {
	o := deckspec.Defaults()
	for _, opt := range opts {
		opt(&o)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.Deck{}, fmt.Errorf("failed to parse deck: %w", err)
	}

	var spec deckspec.DeckSpec
	if err := deckspec.Decode(raw, &spec); err != nil {
		return domain.Deck{}, fmt.Errorf("failed to decode deck: %w", err)
	}
	return spec.Deck(o), nil
}

// Load reads the deck at path into an in-memory deck source.
func Load(path string, opts ...Option) (*memory.Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck: %w", err)
	}
	deck, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return memory.NewFromDeck(deck), nil
}
