package domain

// ScheduledAnimation is an animation with its absolute start offset in a preview.
type ScheduledAnimation struct {
	Animation Animation `json:"animation"`
	Delay     Millis    `json:"delay"`
}

// End returns the absolute time at which the animation finishes.
func (s ScheduledAnimation) End() Millis {
	return s.Delay + s.Animation.Duration
}

// PreviewSchedule is the editor-only simulation of a slide's playback.
type PreviewSchedule struct {
	Entries []ScheduledAnimation `json:"entries"`
	// FlashTimes marks the simulated "user click" boundaries.
	FlashTimes []Millis `json:"flash_times"`
	// End is the time at which the longest animation finishes.
	End Millis `json:"end"`
}

// DelayOf returns the start offset of the first entry targeting id.
func (p PreviewSchedule) DelayOf(id ElementID) (Millis, bool) {
	for _, e := range p.Entries {
		if e.Animation.Target == id {
			return e.Delay, true
		}
	}
	return 0, false
}
