// Package compiler turns a slide's authored animation list into playback steps.
package compiler

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
)

// Compile groups an animation list into discrete steps.
// It is pure and deterministic; errors are configuration errors of the authored list.
func Compile(animations []domain.Animation) ([]domain.AnimationStep, error) {
	return CompileSlide(-1, animations)
}

// CompileSlide is Compile with errors attributed to slideIndex.
func CompileSlide(slideIndex int, animations []domain.Animation) ([]domain.AnimationStep, error) {
	var errs []error
	for i, a := range animations {
		if err := a.Validate(); err != nil {
			errs = append(errs, &domain.CompileError{SlideIndex: slideIndex, AnimationIndex: i, Target: a.Target, Err: err})
		}
	}
	if len(errs) > 0 {
		return nil, domain.Join(errs...)
	}

	var acc []pending
	for i, a := range animations {
		next, err := fold(acc, a)
		if err != nil {
			errs = append(errs, &domain.CompileError{SlideIndex: slideIndex, AnimationIndex: i, Target: a.Target, Err: err})
			continue
		}
		acc = next
	}
	if len(errs) > 0 {
		return nil, domain.Join(errs...)
	}

	slices.SortStableFunc(acc, func(a, b pending) int {
		return cmp.Or(cmp.Compare(a.sortKey(), b.sortKey()), cmp.Compare(a.scanIndex, b.scanIndex))
	})

	steps := make([]domain.AnimationStep, len(acc))
	for i, p := range acc {
		steps[i] = p.step
	}
	return steps, nil
}

// CompileDeck compiles every slide of a deck, aggregating all configuration errors.
// The result is indexed by slide.
func CompileDeck(deck ports.DeckSource) ([][]domain.AnimationStep, error) {
	count := deck.SlideCount()
	out := make([][]domain.AnimationStep, count)
	var errs []error
	for i := 0; i < count; i++ {
		slide, err := deck.Slide(i)
		if err != nil {
			errs = append(errs, fmt.Errorf("slide %d: %w", i, err))
			continue
		}
		steps, err := CompileSlide(i, slide.Animations)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[i] = steps
	}
	return out, domain.Join(errs...)
}

// pending is a step under construction together with the resolved start offsets of its animations.
type pending struct {
	step      domain.AnimationStep
	starts    []domain.Millis
	scanIndex int
}

func (p pending) sortKey() int {
	anchor := p.step.Anchor()
	if anchor.Trigger == domain.TriggerOnClick && anchor.Order != nil {
		return *anchor.Order
	}
	return p.scanIndex
}

// fold applies one authored animation to the accumulated steps and returns the new accumulator.
// The input slice is never modified.
func fold(acc []pending, a domain.Animation) ([]pending, error) {
	switch {
	case a.Trigger == domain.TriggerOnEnter:
		return acc, nil
	case a.Trigger.IsAnchor():
		return append(slices.Clip(acc), open(a, len(acc))), nil
	case a.Trigger.IsChain():
		if len(acc) == 0 {
			return nil, domain.ErrOrphanChain
		}
		next := slices.Clone(acc)
		next[len(next)-1] = next[len(next)-1].chain(a)
		return next, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTrigger, a.Trigger)
}

func open(anchor domain.Animation, scanIndex int) pending {
	step := domain.AnimationStep{
		Trigger:        anchor.Trigger,
		Animations:     []domain.Animation{anchor},
		DelayOverrides: map[int]domain.Millis{},
	}
	if anchor.Trigger == domain.TriggerOnKey {
		step.Key = anchor.Key
	}
	return pending{step: step, starts: []domain.Millis{anchor.Delay}, scanIndex: scanIndex}
}

// chain appends a with-previous/after-previous entry, offset from the most recently appended animation.
func (p pending) chain(a domain.Animation) pending {
	last := len(p.step.Animations) - 1
	prev := p.step.Animations[last]
	prevStart := p.starts[last]

	start := prevStart + a.Delay
	if a.Trigger == domain.TriggerAfterPrevious {
		start += prev.Duration
	}

	overrides := make(map[int]domain.Millis, len(p.step.DelayOverrides)+1)
	for k, v := range p.step.DelayOverrides {
		overrides[k] = v
	}
	overrides[last+1] = start

	next := p
	next.step.Animations = append(slices.Clone(p.step.Animations), a)
	next.step.DelayOverrides = overrides
	next.starts = append(slices.Clone(p.starts), start)
	return next
}
