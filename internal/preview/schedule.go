// Package preview simulates slide playback for editors without touching the playback state.
package preview

import (
	"github.com/aretw0/marquee/internal/compiler"
	"github.com/aretw0/marquee/pkg/domain"
)

// PreviewOne plays the animations one after another, ignoring triggers.
func PreviewOne(animations []domain.Animation) domain.PreviewSchedule {
	var sched domain.PreviewSchedule
	var cursor domain.Millis
	for _, a := range animations {
		entry := domain.ScheduledAnimation{Animation: a, Delay: cursor + a.Delay}
		sched.Entries = append(sched.Entries, entry)
		cursor = entry.End()
	}
	sched.End = cursor
	return sched
}

// PreviewAll plays on-enter animations first, then every step as if clicked
// the moment the previous one finished.
func PreviewAll(animations []domain.Animation) (domain.PreviewSchedule, error) {
	return PreviewSlide(-1, animations)
}

// PreviewSlide is PreviewAll with configuration errors attributed to slideIndex.
func PreviewSlide(slideIndex int, animations []domain.Animation) (domain.PreviewSchedule, error) {
	// on-enter entries are not part of the step sequence, the compiler skips them.
	steps, err := compiler.CompileSlide(slideIndex, animations)
	if err != nil {
		return domain.PreviewSchedule{}, err
	}

	var sched domain.PreviewSchedule
	var onEnterEnd domain.Millis
	for _, a := range animations {
		if a.Trigger == domain.TriggerOnEnter {
			sched.Entries = append(sched.Entries, domain.ScheduledAnimation{Animation: a, Delay: a.Delay})
			onEnterEnd = max(onEnterEnd, a.End())
		}
	}

	cursor := onEnterEnd
	for _, step := range steps {
		if step.Trigger.IsAnchor() {
			sched.FlashTimes = append(sched.FlashTimes, cursor)
		}
		stepEnd := cursor
		for i, a := range step.Animations {
			entry := domain.ScheduledAnimation{Animation: a, Delay: cursor + step.ResolvedDelay(i)}
			sched.Entries = append(sched.Entries, entry)
			stepEnd = max(stepEnd, entry.End())
		}
		cursor = stepEnd
	}

	sched.End = max(onEnterEnd, cursor)
	return sched, nil
}
