package preview

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
)

// DefaultPadding is added to the end of a schedule before it is cleared.
const DefaultPadding = 100 * time.Millisecond

// Timer is the subset of *time.Timer the player needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Player holds the schedule currently shown in the editor and clears it once it has played.
// At most one auto-clear timer is armed at any time.
type Player struct {
	mu      sync.Mutex
	active  *domain.PreviewSchedule
	timer   Timer
	gen     uint64
	closed  bool
	padding time.Duration
	after   AfterFunc
	onClear func()
	logger  *slog.Logger
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithPadding overrides the delay added after the schedule ends.
func WithPadding(d time.Duration) PlayerOption {
	return func(p *Player) {
		p.padding = d
	}
}

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(f AfterFunc) PlayerOption {
	return func(p *Player) {
		p.after = f
	}
}

// WithOnClear registers a callback fired when a schedule is cleared by its timer.
func WithOnClear(f func()) PlayerOption {
	return func(p *Player) {
		p.onClear = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PlayerOption {
	return func(p *Player) {
		p.logger = l
	}
}

// NewPlayer creates an idle player.
func NewPlayer(opts ...PlayerOption) *Player {
	p := &Player{
		padding: DefaultPadding,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play replaces the active schedule and re-arms the auto-clear timer.
// The timer is armed outside the lock, so an AfterFunc may fire synchronously.
func (p *Player) Play(sched domain.PreviewSchedule) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	p.stopLocked()
	gen := p.gen
	p.active = &sched

	wait := sched.End.Duration() + p.padding
	p.logger.Debug("preview started", "entries", len(sched.Entries), "flashes", len(sched.FlashTimes), "clear_after", wait)
	p.mu.Unlock()

	timer := p.after(wait, func() { p.expire(gen) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.active == nil {
		// Already cleared, replaced or stopped.
		timer.Stop()
		return
	}
	p.timer = timer
}

// PlayAll computes the full-slide schedule and plays it.
func (p *Player) PlayAll(animations []domain.Animation) (domain.PreviewSchedule, error) {
	sched, err := PreviewAll(animations)
	if err != nil {
		return domain.PreviewSchedule{}, err
	}
	p.Play(sched)
	return sched, nil
}

// PlayOne computes the sequential schedule and plays it.
func (p *Player) PlayOne(animations []domain.Animation) domain.PreviewSchedule {
	sched := PreviewOne(animations)
	p.Play(sched)
	return sched
}

// Active returns the schedule being shown, if any.
func (p *Player) Active() (domain.PreviewSchedule, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return domain.PreviewSchedule{}, false
	}
	return *p.active, true
}

// Stop clears the active schedule without firing OnClear.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Close stops the player for good. Later calls to Play are ignored.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	return nil
}

func (p *Player) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.active = nil
	p.gen++
}

func (p *Player) expire(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.active == nil {
		// A newer Play or a Stop already took over.
		p.mu.Unlock()
		return
	}
	p.active = nil
	p.timer = nil
	onClear := p.onClear
	p.mu.Unlock()

	p.logger.Debug("preview cleared")
	if onClear != nil {
		onClear()
	}
}
