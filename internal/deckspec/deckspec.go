// Package deckspec decodes authored deck documents (YAML, JSON, front-matter)
// into domain values.
//
// Authors may write timings as plain milliseconds (500) or as Go durations ("1.5s").
// Missing durations fall back to a configurable default.
package deckspec

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrUnknownTarget is returned when an animation targets an element the slide does not have.
var ErrUnknownTarget = errors.New("animation targets an unknown element")

// AnimationSpec is the authored form of an animation.
type AnimationSpec struct {
	Target   string         `mapstructure:"target"`
	Trigger  string         `mapstructure:"trigger"`
	Effect   string         `mapstructure:"effect"`
	Delay    domain.Millis  `mapstructure:"delay"`
	Duration *domain.Millis `mapstructure:"duration"`
	Order    *int           `mapstructure:"order"`
	Key      string         `mapstructure:"key"`
}

// SlideSpec is the authored form of a slide.
type SlideSpec struct {
	ID         string           `mapstructure:"id"`
	Title      string           `mapstructure:"title"`
	Elements   []domain.Element `mapstructure:"elements"`
	Animations []AnimationSpec  `mapstructure:"animations"`
	Notes      string           `mapstructure:"notes"`
}

// DeckSpec is the authored form of a deck.
type DeckSpec struct {
	Title  string      `mapstructure:"title"`
	Slides []SlideSpec `mapstructure:"slides"`
}

// Options controls how specs become domain values.
type Options struct {
	DefaultDuration domain.Millis
}

// Defaults returns the options used when none are given.
func Defaults() Options {
	return Options{DefaultDuration: domain.DefaultDuration}
}

// Decode decodes a generic document (as produced by yaml or json unmarshalling)
// into out, with weak typing and millisecond parsing.
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       millisHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var millisType = reflect.TypeOf(domain.Millis(0))

// maxMillis keeps Millis.Duration from overflowing.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// millisHook accepts "250", "250ms" and "1.5s" for Millis fields.
func millisHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != millisType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		return toMillis(reflect.ValueOf(data).Float(), fmt.Sprint(data))
	case reflect.String:
	default:
		return data, nil
	}
	raw := strings.TrimSpace(reflect.ValueOf(data).String())
	if raw == "" {
		return domain.Millis(0), nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return toMillis(n, raw)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid timing %q: want milliseconds or a duration like 1.5s", raw)
	}
	return domain.MillisOf(d), nil
}

func toMillis(n float64, raw string) (domain.Millis, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > float64(maxMillis) {
		return 0, fmt.Errorf("invalid timing %q: out of range", raw)
	}
	return domain.Millis(n), nil
}

// Animation converts an authored animation, applying the default duration when none was authored.
func (a AnimationSpec) Animation(o Options) domain.Animation {
	duration := o.DefaultDuration
	if a.Duration != nil {
		duration = *a.Duration
	}
	var order *int
	if a.Order != nil {
		v := *a.Order
		order = &v
	}
	return domain.Animation{
		Target:   domain.ElementID(a.Target),
		Trigger:  domain.Trigger(a.Trigger),
		Effect:   a.Effect,
		Delay:    a.Delay,
		Duration: duration,
		Order:    order,
		Key:      a.Key,
	}
}

// Animations converts a list of specs. An empty list yields nil.
func Animations(specs []AnimationSpec, o Options) []domain.Animation {
	if len(specs) == 0 {
		return nil
	}
	out := make([]domain.Animation, len(specs))
	for i, s := range specs {
		out[i] = s.Animation(o)
	}
	return out
}

// Slide converts an authored slide. Slides without an ID are named after their position.
func (s SlideSpec) Slide(index int, o Options) domain.Slide {
	id := s.ID
	if id == "" {
		id = fmt.Sprintf("slide-%d", index+1)
	}
	return domain.Slide{
		ID:         id,
		Title:      s.Title,
		Elements:   s.Elements,
		Animations: Animations(s.Animations, o),
		Notes:      s.Notes,
	}
}

// Deck converts an authored deck.
func (d DeckSpec) Deck(o Options) domain.Deck {
	slides := make([]domain.Slide, len(d.Slides))
	for i, s := range d.Slides {
		slides[i] = s.Slide(i, o)
	}
	return domain.Deck{Title: d.Title, Slides: slides}
}

// Validate reports authoring errors the step compiler cannot see:
// duplicate slide IDs and animations targeting unknown elements.
func Validate(deck domain.Deck) error {
	var errs []error
	seen := make(map[string]int, len(deck.Slides))
	for i, slide := range deck.Slides {
		if prev, ok := seen[slide.ID]; ok {
			errs = append(errs, fmt.Errorf("slide %d: duplicate id %q (also slide %d)", i, slide.ID, prev))
		}
		seen[slide.ID] = i

		elements := make(map[domain.ElementID]bool, len(slide.Elements))
		for _, el := range slide.Elements {
			elements[el.ID] = true
		}
		for j, a := range slide.Animations {
			if !elements[a.Target] {
				errs = append(errs, &domain.CompileError{
					SlideIndex:     i,
					AnimationIndex: j,
					Target:         a.Target,
					Err:            ErrUnknownTarget,
				})
			}
		}
	}
	return domain.Join(errs...)
}
