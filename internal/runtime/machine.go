// Package runtime holds the playback state machine of a presentation window.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/marquee/internal/compiler"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
)

// Broadcaster mirrors local state changes to the paired window.
type Broadcaster interface {
	Send(ctx context.Context, msg domain.ChannelMessage) error
}

// Machine is the playback state machine of one window.
// It is not safe for concurrent use; callers serialize access the way a window event loop does.
type Machine struct {
	deck        ports.DeckSource
	broadcaster Broadcaster
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	now         func() time.Time

	mode  domain.Mode
	state domain.PlaybackState
	steps map[int][]domain.AnimationStep

	// skipEcho suppresses the broadcast of the next change, which came from the paired window.
	skipEcho bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithBroadcaster sets where local changes are mirrored. Without one, changes stay local.
func WithBroadcaster(b Broadcaster) Option {
	return func(m *Machine) {
		m.broadcaster = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithLifecycleHooks registers playback callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = m.hooks.Merge(h)
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine creates an idle machine over deck.
func NewMachine(deck ports.DeckSource, opts ...Option) *Machine {
	m := &Machine{
		deck:   deck,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		mode:   domain.ModeIdle,
		steps:  make(map[int][]domain.AnimationStep),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns whether the machine is presenting.
func (m *Machine) Mode() domain.Mode {
	return m.mode
}

// State returns the current position.
func (m *Machine) State() domain.PlaybackState {
	return m.state
}

// Start enters presentation mode at slideIndex, step 0.
// The whole deck is compiled first so configuration errors surface before the audience sees them.
func (m *Machine) Start(ctx context.Context, slideIndex int) error {
	if m.mode == domain.ModePresenting {
		return domain.ErrAlreadyPresenting
	}
	count := m.deck.SlideCount()
	if slideIndex < 0 || slideIndex >= count {
		return fmt.Errorf("%w: %d of %d", domain.ErrSlideOutOfRange, slideIndex, count)
	}

	compiled, err := compiler.CompileDeck(m.deck)
	if err != nil {
		return fmt.Errorf("deck is not presentable: %w", err)
	}
	clear(m.steps)
	for i, steps := range compiled {
		m.steps[i] = steps
	}

	from := m.state
	m.mode = domain.ModePresenting
	m.state = domain.PlaybackState{SlideIndex: slideIndex}
	m.skipEcho = false

	m.logger.Info("presentation started", "slide", slideIndex, "slides", count)
	m.emit(ctx, m.hooks.OnStart, domain.EventStart, from, domain.OriginLocal)
	return nil
}

// Advance plays the next step, or moves to the next slide once every step is consumed.
// It reports whether the position changed.
func (m *Machine) Advance(ctx context.Context) bool {
	if m.mode != domain.ModePresenting {
		return false
	}
	next := m.state
	switch {
	case next.ActiveStep < len(m.Steps()):
		next.ActiveStep++
	case next.SlideIndex < m.deck.SlideCount()-1:
		next = domain.PlaybackState{SlideIndex: next.SlideIndex + 1}
	default:
		return false
	}
	return m.set(ctx, next, domain.OriginLocal)
}

// GoBack undoes one step, or moves to the start of the previous slide.
func (m *Machine) GoBack(ctx context.Context) bool {
	if m.mode != domain.ModePresenting {
		return false
	}
	next := m.state
	switch {
	case next.ActiveStep > 0:
		next.ActiveStep--
	case next.SlideIndex > 0:
		next = domain.PlaybackState{SlideIndex: next.SlideIndex - 1}
	default:
		return false
	}
	return m.set(ctx, next, domain.OriginLocal)
}

// OnKey advances only when the pending step is an on-key step bound to key.
func (m *Machine) OnKey(ctx context.Context, key string) bool {
	if m.mode != domain.ModePresenting {
		return false
	}
	steps := m.Steps()
	if m.state.ActiveStep >= len(steps) || !steps[m.state.ActiveStep].MatchesKey(key) {
		return false
	}
	return m.Advance(ctx)
}

// GoTo jumps to the first step of slideIndex. Out of range indexes are ignored.
func (m *Machine) GoTo(ctx context.Context, slideIndex int) bool {
	if m.mode != domain.ModePresenting || slideIndex < 0 || slideIndex >= m.deck.SlideCount() {
		return false
	}
	return m.set(ctx, domain.PlaybackState{SlideIndex: slideIndex}, domain.OriginLocal)
}

// Apply mirrors a position received from the paired window without echoing it back.
// The position is clamped to the deck.
func (m *Machine) Apply(ctx context.Context, state domain.PlaybackState) bool {
	if m.mode != domain.ModePresenting {
		return false
	}
	count := m.deck.SlideCount()
	if count == 0 {
		return false
	}
	state.SlideIndex = min(max(state.SlideIndex, 0), count-1)
	state.ActiveStep = min(max(state.ActiveStep, 0), len(m.stepsOf(ctx, state.SlideIndex)))

	m.skipEcho = true
	changed := m.set(ctx, state, domain.OriginRemote)
	if !changed {
		m.skipEcho = false
	}
	return changed
}

// Exit leaves presentation mode. Broadcasting the exit is up to the caller.
func (m *Machine) Exit(ctx context.Context) bool {
	if m.mode != domain.ModePresenting {
		return false
	}
	m.mode = domain.ModeIdle
	m.skipEcho = false
	m.logger.Info("presentation ended", "slide", m.state.SlideIndex, "step", m.state.ActiveStep)
	m.emit(ctx, m.hooks.OnExit, domain.EventExit, m.state, domain.OriginLocal)
	return true
}

// Steps returns the compiled steps of the current slide.
func (m *Machine) Steps() []domain.AnimationStep {
	return m.stepsOf(context.Background(), m.state.SlideIndex)
}

// Invalidate drops cached steps after the deck changed and clamps the position to it.
func (m *Machine) Invalidate(ctx context.Context) {
	clear(m.steps)
	if m.mode != domain.ModePresenting {
		return
	}
	next := m.state
	if count := m.deck.SlideCount(); next.SlideIndex >= count {
		next = domain.PlaybackState{SlideIndex: max(count-1, 0)}
	}
	next.ActiveStep = min(next.ActiveStep, len(m.stepsOf(ctx, next.SlideIndex)))
	m.set(ctx, next, domain.OriginLocal)
}

// Frame assembles what a renderer needs for the current position.
func (m *Machine) Frame() (domain.Frame, error) {
	frame := domain.Frame{
		Mode:       m.mode,
		State:      m.state,
		SlideCount: m.deck.SlideCount(),
	}
	if frame.SlideCount == 0 {
		return frame, nil
	}
	slide, err := m.deck.Slide(m.state.SlideIndex)
	if err != nil {
		return frame, fmt.Errorf("load slide %d: %w", m.state.SlideIndex, err)
	}
	frame.Slide = slide
	frame.Steps = m.Steps()
	return frame, nil
}

// set assigns the position and notifies hooks and the paired window.
func (m *Machine) set(ctx context.Context, next domain.PlaybackState, origin domain.Origin) bool {
	if next == m.state {
		return false
	}
	from := m.state
	m.state = next

	if from.SlideIndex != next.SlideIndex {
		m.emit(ctx, m.hooks.OnSlideChange, domain.EventSlideChange, from, origin)
	} else {
		m.emit(ctx, m.hooks.OnStepChange, domain.EventStepChange, from, origin)
	}
	m.logger.Debug("playback moved", "from", from, "to", next, "origin", origin)

	m.notify(ctx)
	return true
}

// notify is the change effect: it consumes the skip-echo flag or broadcasts the new position.
func (m *Machine) notify(ctx context.Context) {
	if m.skipEcho {
		m.skipEcho = false
		return
	}
	if m.broadcaster == nil {
		return
	}
	if err := m.broadcaster.Send(ctx, domain.NavigateMessage(m.state)); err != nil {
		m.logger.Warn("failed to mirror position", "state", m.state, "err", err)
	}
}

func (m *Machine) stepsOf(ctx context.Context, slideIndex int) []domain.AnimationStep {
	if steps, ok := m.steps[slideIndex]; ok {
		return steps
	}
	slide, err := m.deck.Slide(slideIndex)
	if err != nil {
		m.logger.WarnContext(ctx, "slide unavailable", "slide", slideIndex, "err", err)
		return nil
	}
	steps, err := compiler.CompileSlide(slideIndex, slide.Animations)
	if err != nil {
		// Keep presenting; the slide simply has no steps until it is fixed.
		m.logger.WarnContext(ctx, "slide animations do not compile", "slide", slideIndex, "err", err)
		steps = nil
	}
	m.steps[slideIndex] = steps
	return steps
}

func (m *Machine) emit(ctx context.Context, hook func(context.Context, *domain.PlaybackEvent), typ domain.EventType, from domain.PlaybackState, origin domain.Origin) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.PlaybackEvent{
		EventBase: domain.EventBase{Timestamp: m.now(), Type: typ},
		From:      from,
		To:        m.state,
		Steps:     len(m.stepsOf(ctx, m.state.SlideIndex)),
		Origin:    origin,
	})
}
