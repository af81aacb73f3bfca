package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/marquee/internal/runtime"
	"github.com/aretw0/marquee/pkg/adapters/memory"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []domain.ChannelMessage
	err  error
}

func (r *recorder) Send(_ context.Context, msg domain.ChannelMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func at(slide, step int) domain.PlaybackState {
	return domain.PlaybackState{SlideIndex: slide, ActiveStep: step}
}

// threeSlides has 2 steps on slide 0, none on slide 1 and an on-key step followed by a click on slide 2.
func threeSlides() *memory.Deck {
	return memory.NewDeck(
		domain.Slide{ID: "s0", Animations: []domain.Animation{
			{Target: "a", Trigger: domain.TriggerOnClick, Duration: 100},
			{Target: "a2", Trigger: domain.TriggerWithPrevious, Duration: 100},
			{Target: "b", Trigger: domain.TriggerOnClick, Duration: 100},
		}},
		domain.Slide{ID: "s1"},
		domain.Slide{ID: "s2", Animations: []domain.Animation{
			{Target: "v", Trigger: domain.TriggerOnKey, Key: "v", Duration: 100},
			{Target: "c", Trigger: domain.TriggerOnClick, Duration: 100},
		}},
	)
}

func started(t *testing.T, slide int, opts ...runtime.Option) (*runtime.Machine, *recorder) {
	t.Helper()
	rec := &recorder{}
	m := runtime.NewMachine(threeSlides(), append([]runtime.Option{runtime.WithBroadcaster(rec)}, opts...)...)
	require.NoError(t, m.Start(context.Background(), slide))
	return m, rec
}

func TestMachine_Start(t *testing.T) {
	ctx := context.Background()
	m := runtime.NewMachine(threeSlides())
	assert.Equal(t, domain.ModeIdle, m.Mode())
	assert.False(t, m.Advance(ctx), "idle machine ignores navigation")

	assert.ErrorIs(t, m.Start(ctx, 3), domain.ErrSlideOutOfRange)
	assert.ErrorIs(t, m.Start(ctx, -1), domain.ErrSlideOutOfRange)

	require.NoError(t, m.Start(ctx, 2))
	assert.Equal(t, domain.ModePresenting, m.Mode())
	assert.Equal(t, at(2, 0), m.State())
	assert.ErrorIs(t, m.Start(ctx, 0), domain.ErrAlreadyPresenting)
}

func TestMachine_StartRejectsBrokenDeck(t *testing.T) {
	deck := memory.NewDeck(
		domain.Slide{ID: "ok"},
		domain.Slide{ID: "bad", Animations: []domain.Animation{{Target: "x", Trigger: domain.TriggerWithPrevious}}},
	)
	m := runtime.NewMachine(deck)

	err := m.Start(context.Background(), 0)
	require.ErrorIs(t, err, domain.ErrOrphanChain)
	assert.Equal(t, domain.ModeIdle, m.Mode())
}

func TestMachine_AdvanceThroughDeck(t *testing.T) {
	ctx := context.Background()
	m, rec := started(t, 0)

	require.Len(t, m.Steps(), 2)
	assert.True(t, m.Advance(ctx))
	assert.True(t, m.Advance(ctx))
	assert.Equal(t, at(0, 2), m.State(), "len(steps) advances consume every step")

	assert.True(t, m.Advance(ctx))
	assert.Equal(t, at(1, 0), m.State(), "one more advance moves to the next slide")

	assert.True(t, m.Advance(ctx))
	assert.Equal(t, at(2, 0), m.State(), "slide without steps advances straight through")

	assert.True(t, m.Advance(ctx))
	assert.True(t, m.Advance(ctx))
	assert.Equal(t, at(2, 2), m.State())

	assert.False(t, m.Advance(ctx), "end of deck is a no-op")
	assert.Equal(t, at(2, 2), m.State())

	want := []domain.ChannelMessage{
		domain.NavigateMessage(at(0, 1)),
		domain.NavigateMessage(at(0, 2)),
		domain.NavigateMessage(at(1, 0)),
		domain.NavigateMessage(at(2, 0)),
		domain.NavigateMessage(at(2, 1)),
		domain.NavigateMessage(at(2, 2)),
	}
	assert.Equal(t, want, rec.sent)
}

func TestMachine_GoBack(t *testing.T) {
	ctx := context.Background()
	m, _ := started(t, 2)

	assert.True(t, m.Advance(ctx))
	assert.True(t, m.GoBack(ctx))
	assert.Equal(t, at(2, 0), m.State())

	assert.True(t, m.GoBack(ctx))
	assert.Equal(t, at(1, 0), m.State())

	assert.True(t, m.GoBack(ctx))
	assert.Equal(t, at(0, 0), m.State(), "previous slide restarts at step 0")

	assert.False(t, m.GoBack(ctx), "start of deck is a no-op")
}

func TestMachine_OnKey(t *testing.T) {
	ctx := context.Background()
	m, _ := started(t, 0)

	assert.False(t, m.OnKey(ctx, "v"), "on-click step ignores keys")
	assert.Equal(t, at(0, 0), m.State())

	require.True(t, m.GoTo(ctx, 2))
	assert.False(t, m.OnKey(ctx, "x"))
	assert.False(t, m.OnKey(ctx, "V"), "keys are case sensitive")
	assert.True(t, m.OnKey(ctx, "v"))
	assert.Equal(t, at(2, 1), m.State())

	assert.False(t, m.OnKey(ctx, "v"), "next step is on-click")
	assert.True(t, m.Advance(ctx), "generic advance always works")
}

func TestMachine_GenericAdvanceOnKeyStep(t *testing.T) {
	ctx := context.Background()
	m, _ := started(t, 2)

	assert.True(t, m.Advance(ctx))
	assert.Equal(t, at(2, 1), m.State())
}

func TestMachine_ApplyDoesNotEcho(t *testing.T) {
	ctx := context.Background()
	m, rec := started(t, 0)

	assert.True(t, m.Apply(ctx, at(2, 1)))
	assert.Equal(t, at(2, 1), m.State())
	assert.Empty(t, rec.sent, "remote navigation is not re-broadcast")

	assert.True(t, m.Advance(ctx))
	assert.Equal(t, []domain.ChannelMessage{domain.NavigateMessage(at(2, 2))}, rec.sent, "flag is consumed by a single change")
}

func TestMachine_ApplyWithoutChangeClearsFlag(t *testing.T) {
	ctx := context.Background()
	m, rec := started(t, 0)

	assert.False(t, m.Apply(ctx, at(0, 0)))
	assert.True(t, m.Advance(ctx))
	assert.Equal(t, []domain.ChannelMessage{domain.NavigateMessage(at(0, 1))}, rec.sent)
}

func TestMachine_ApplyClamps(t *testing.T) {
	ctx := context.Background()
	m, _ := started(t, 0)

	assert.True(t, m.Apply(ctx, at(9, 9)))
	assert.Equal(t, at(2, 2), m.State())

	assert.True(t, m.Apply(ctx, at(-4, -1)))
	assert.Equal(t, at(0, 0), m.State())
}

func TestMachine_Exit(t *testing.T) {
	ctx := context.Background()
	m, _ := started(t, 1)

	assert.True(t, m.Exit(ctx))
	assert.Equal(t, domain.ModeIdle, m.Mode())
	assert.False(t, m.Exit(ctx))
	assert.False(t, m.Apply(ctx, at(2, 0)), "idle machine ignores remote navigation")

	require.NoError(t, m.Start(ctx, 0), "a session can present again")
}

func TestMachine_BroadcastFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{err: errors.New("passenger closed")}
	m := runtime.NewMachine(threeSlides(), runtime.WithBroadcaster(rec))
	require.NoError(t, m.Start(ctx, 0))

	assert.True(t, m.Advance(ctx))
	assert.Equal(t, at(0, 1), m.State())
}

func TestMachine_LifecycleHooks(t *testing.T) {
	ctx := context.Background()
	var events []string
	record := func(ctx context.Context, e *domain.PlaybackEvent) {
		events = append(events, string(e.Type)+":"+string(e.Origin))
	}
	hooks := domain.LifecycleHooks{OnStart: record, OnStepChange: record, OnSlideChange: record, OnExit: record}

	m, _ := started(t, 0, runtime.WithLifecycleHooks(hooks))
	m.Advance(ctx)
	m.Apply(ctx, at(1, 0))
	m.Exit(ctx)

	assert.Equal(t, []string{"start:local", "step_change:local", "slide_change:remote", "exit:local"}, events)
}

func TestMachine_StartHook(t *testing.T) {
	var got *domain.PlaybackEvent
	m := runtime.NewMachine(threeSlides(), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnStart: func(_ context.Context, e *domain.PlaybackEvent) { got = e },
	}))
	require.NoError(t, m.Start(context.Background(), 0))

	require.NotNil(t, got)
	assert.Equal(t, domain.EventStart, got.Type)
	assert.Equal(t, at(0, 0), got.To)
	assert.Equal(t, 2, got.Steps)
}

func TestMachine_InvalidateRecompiles(t *testing.T) {
	ctx := context.Background()
	deck := threeSlides()
	rec := &recorder{}
	m := runtime.NewMachine(deck, runtime.WithBroadcaster(rec))
	require.NoError(t, m.Start(ctx, 0))
	m.Advance(ctx)
	m.Advance(ctx)

	require.NoError(t, deck.SetAnimations(0, []domain.Animation{{Target: "only", Trigger: domain.TriggerOnClick}}))
	assert.Len(t, m.Steps(), 2, "steps are cached until invalidated")

	m.Invalidate(ctx)
	assert.Len(t, m.Steps(), 1)
	assert.Equal(t, at(0, 1), m.State(), "position is clamped to the new steps")
}

func TestMachine_Frame(t *testing.T) {
	ctx := context.Background()
	m, _ := started(t, 0)
	m.Advance(ctx)

	frame, err := m.Frame()
	require.NoError(t, err)
	assert.Equal(t, "s0", frame.Slide.ID)
	assert.Equal(t, 3, frame.SlideCount)
	assert.True(t, frame.Visible("a"))
	assert.True(t, frame.Visible("a2"))
	assert.False(t, frame.Visible("b"))
}
