package domain

// AnimationStep is one discrete advance unit compiled from a slide's animation list.
// Steps are ephemeral: they are recomputed whenever the animation list changes.
type AnimationStep struct {
	// Trigger is either TriggerOnClick or TriggerOnKey (the anchor's trigger).
	Trigger Trigger `json:"trigger"`
	// Key is set when Trigger == TriggerOnKey.
	Key string `json:"key,omitempty"`
	// Animations holds the anchor first, followed by the chained entries in authored order.
	Animations []Animation `json:"animations"`
	// DelayOverrides maps a position in Animations to its start offset relative to the step start.
	// The anchor (position 0) is never overridden.
	DelayOverrides map[int]Millis `json:"delay_overrides,omitempty"`
}

// Anchor returns the animation that started the step.
func (s AnimationStep) Anchor() Animation {
	return s.Animations[0]
}

// ResolvedDelay returns the start offset of the i-th animation relative to the step start.
func (s AnimationStep) ResolvedDelay(i int) Millis {
	if d, ok := s.DelayOverrides[i]; ok {
		return d
	}
	return s.Animations[i].Delay
}

// End returns the step-relative time at which the last animation of the step finishes.
func (s AnimationStep) End() Millis {
	var end Millis
	for i, a := range s.Animations {
		if e := s.ResolvedDelay(i) + a.Duration; e > end {
			end = e
		}
	}
	return end
}

// MatchesKey reports whether a key press advances this step.
func (s AnimationStep) MatchesKey(key string) bool {
	return s.Trigger == TriggerOnKey && s.Key == key
}

// Targets returns the element IDs animated by the step, in order.
func (s AnimationStep) Targets() []ElementID {
	ids := make([]ElementID, 0, len(s.Animations))
	for _, a := range s.Animations {
		ids = append(ids, a.Target)
	}
	return ids
}
