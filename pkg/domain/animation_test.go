package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnimation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		anim    Animation
		wantErr error
	}{
		{"Click", Animation{Target: "e1", Trigger: TriggerOnClick}, nil},
		{"Key", Animation{Target: "e1", Trigger: TriggerOnKey, Key: "v"}, nil},
		{"Unicode Key", Animation{Target: "e1", Trigger: TriggerOnKey, Key: "é"}, nil},
		{"Key Missing", Animation{Target: "e1", Trigger: TriggerOnKey}, ErrMissingKey},
		{"Key Too Long", Animation{Target: "e1", Trigger: TriggerOnKey, Key: "vv"}, ErrMissingKey},
		{"Key On Click", Animation{Target: "e1", Trigger: TriggerOnClick, Key: "v"}, ErrUnexpectedKey},
		{"Unknown Trigger", Animation{Target: "e1", Trigger: "on-hover"}, ErrUnknownTrigger},
		{"Negative Delay", Animation{Target: "e1", Trigger: TriggerOnEnter, Delay: -1}, ErrNegativeTiming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.anim.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStep_ResolvedDelayAndEnd(t *testing.T) {
	step := AnimationStep{
		Trigger: TriggerOnClick,
		Animations: []Animation{
			{Target: "a", Trigger: TriggerOnClick, Delay: 50, Duration: 300},
			{Target: "b", Trigger: TriggerAfterPrevious, Delay: 100, Duration: 200},
		},
		DelayOverrides: map[int]Millis{1: 450},
	}

	assert.Equal(t, Millis(50), step.ResolvedDelay(0))
	assert.Equal(t, Millis(450), step.ResolvedDelay(1))
	assert.Equal(t, Millis(650), step.End())
	assert.Equal(t, []ElementID{"a", "b"}, step.Targets())
}

func TestFrame_Visible(t *testing.T) {
	frame := Frame{
		State: PlaybackState{ActiveStep: 1},
		Steps: []AnimationStep{
			{Trigger: TriggerOnClick, Animations: []Animation{{Target: "first"}}},
			{Trigger: TriggerOnClick, Animations: []Animation{{Target: "second"}}},
		},
	}

	assert.True(t, frame.Visible("first"))
	assert.False(t, frame.Visible("second"))
	assert.True(t, frame.Visible("static"))

	next, ok := frame.NextStep()
	assert.True(t, ok)
	assert.Equal(t, ElementID("second"), next.Anchor().Target)
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil, nil))

	single := &CompileError{SlideIndex: 0, AnimationIndex: 1, Target: "x", Err: ErrOrphanChain}
	assert.Same(t, single, Join(nil, single))

	other := &CompileError{SlideIndex: 2, AnimationIndex: 0, Target: "y", Err: ErrMissingKey}
	joined := Join(single, Join(other, errors.New("plain")))

	var agg *AggregateError
	assert.ErrorAs(t, joined, &agg)
	assert.Len(t, agg.Errors, 3)
	assert.ErrorIs(t, joined, ErrOrphanChain)
	assert.ErrorIs(t, joined, ErrMissingKey)
	assert.Len(t, CompileErrors(joined), 2)
	assert.Contains(t, joined.Error(), "3 configuration errors")
}
