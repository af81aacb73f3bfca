package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/marquee/internal/runtime"
	"github.com/aretw0/marquee/pkg/channel"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
)

// Role tells which end of a paired presentation a session is.
type Role string

const (
	// RoleDriver is the presenter window. It owns the audience window and the full-screen request.
	RoleDriver Role = "driver"
	// RolePassenger is the audience window. It follows the driver and can drive it back.
	RolePassenger Role = "passenger"
)

// DefaultLeaseTTL is how long a driver lease lives without renewal.
const DefaultLeaseTTL = 30 * time.Second

// Session is one presentation window: a playback machine wired to the paired window.
// All operations are serialized, mirroring the single event loop of a window.
type Session struct {
	role     Role
	deck     ports.DeckSource
	peer     *channel.Peer
	renderer ports.Renderer
	display  ports.Display
	opener   ports.WindowOpener
	locker   ports.DistributedLocker
	leaseTTL time.Duration
	tick     time.Duration
	reload   bool
	logger   *slog.Logger
	now      func() time.Time

	machineOpts []runtime.Option

	mu        sync.Mutex
	machine   *runtime.Machine
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}
	window    ports.Window
	unlock    ports.UnlockFunc
	pointer   domain.Pointer
	startedAt time.Time
	stoppedAt time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// AsPassenger makes the session follow a driver.
func AsPassenger() SessionOption {
	return func(s *Session) {
		s.role = RolePassenger
	}
}

// WithPeer pairs the session with other windows. Without a peer the session presents alone.
func WithPeer(p *channel.Peer) SessionOption {
	return func(s *Session) {
		s.peer = p
		if p != nil {
			s.machineOpts = append(s.machineOpts, runtime.WithBroadcaster(p))
		}
	}
}

// WithSessionRenderer sets where frames are painted.
func WithSessionRenderer(r ports.Renderer) SessionOption {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithDisplay sets the full-screen controller of the driver.
func WithDisplay(d ports.Display) SessionOption {
	return func(s *Session) {
		s.display = d
	}
}

// WithWindowOpener sets how the driver opens the audience window.
func WithWindowOpener(o ports.WindowOpener) SessionOption {
	return func(s *Session) {
		s.opener = o
	}
}

// WithLease makes the driver claim the topic so no second presenter can drive it.
func WithLease(l ports.DistributedLocker, ttl time.Duration) SessionOption {
	return func(s *Session) {
		s.locker = l
		if ttl > 0 {
			s.leaseTTL = ttl
		}
	}
}

// WithClockTick re-renders every d so the presenter clock moves. Zero disables it.
func WithClockTick(d time.Duration) SessionOption {
	return func(s *Session) {
		s.tick = d
	}
}

// WithLiveReload recompiles steps whenever a watchable deck changes.
func WithLiveReload(enabled bool) SessionOption {
	return func(s *Session) {
		s.reload = enabled
	}
}

// WithSessionLogger sets the logger of the session and its machine.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
		s.machineOpts = append(s.machineOpts, runtime.WithLogger(l))
	}
}

// WithSessionHooks registers playback callbacks.
func WithSessionHooks(h domain.LifecycleHooks) SessionOption {
	return func(s *Session) {
		s.machineOpts = append(s.machineOpts, runtime.WithLifecycleHooks(h))
	}
}

// WithSessionClock overrides time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
		s.machineOpts = append(s.machineOpts, runtime.WithClock(now))
	}
}

// NewSession creates an idle driver session over deck.
func NewSession(deck ports.DeckSource, opts ...SessionOption) *Session {
	s := &Session{
		role:     RoleDriver,
		deck:     deck,
		leaseTTL: DefaultLeaseTTL,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("role", s.role)
	s.machine = runtime.NewMachine(deck, s.machineOpts...)
	return s
}

// Role returns the session role.
func (s *Session) Role() Role {
	return s.role
}

// Topic returns the channel topic, or "" for a solo session.
func (s *Session) Topic() string {
	if s.peer == nil {
		return ""
	}
	return s.peer.Topic()
}

// Start enters presentation mode at slideIndex.
// A driver opens the audience window and goes full-screen; a passenger asks the driver where it is.
// The presentation lasts until Exit, an exit from the paired window, or ctx being done.
// When ctx ends a driver also closes its passenger.
func (s *Session) Start(ctx context.Context, slideIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Mode() == domain.ModePresenting {
		return domain.ErrAlreadyPresenting
	}

	var renew ports.RenewFunc
	if s.role == RoleDriver && s.locker != nil && s.peer != nil {
		var err error
		renew, err = s.claim(ctx, s.peer.Topic())
		if err != nil {
			return fmt.Errorf("claim %s: %w", s.peer.Topic(), err)
		}
	}

	if err := s.machine.Start(ctx, slideIndex); err != nil {
		s.releaseLease(ctx)
		return err
	}

	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.startedAt = s.now()
	s.stoppedAt = time.Time{}
	s.pointer = domain.Pointer{}

	if renew != nil {
		go s.keepLease(runCtx, renew)
	}

	if s.peer != nil {
		in, err := s.peer.Subscribe(runCtx)
		if err != nil {
			s.logger.Warn("presenting without paired window", "err", err)
		} else {
			go s.listen(runCtx, gen, in)
		}
	}

	switch s.role {
	case RoleDriver:
		s.openAudience(ctx)
	case RolePassenger:
		if s.peer != nil {
			if err := s.peer.Send(ctx, domain.SyncRequestMessage()); err != nil {
				s.logger.Warn("sync request not sent", "err", err)
			}
		}
	}

	if s.tick > 0 {
		go s.clock(runCtx, gen)
	}
	if s.reload {
		s.watch(runCtx, gen)
	}
	go func() {
		<-runCtx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen && s.machine.Mode() == domain.ModePresenting {
			s.logger.Debug("session context done, leaving presentation")
			bg := context.WithoutCancel(ctx)
			if s.role == RoleDriver && s.peer != nil {
				if err := s.peer.Send(bg, domain.ExitMessage()); err != nil {
					s.logger.Warn("exit not mirrored", "err", err)
				}
			}
			s.teardown(bg)
		}
	}()

	s.render(ctx)
	return nil
}

// Advance moves forward one step or slide.
func (s *Session) Advance(ctx context.Context) bool {
	return s.navigate(ctx, func() bool { return s.machine.Advance(ctx) })
}

// GoBack moves back one step or to the start of the previous slide.
func (s *Session) GoBack(ctx context.Context) bool {
	return s.navigate(ctx, func() bool { return s.machine.GoBack(ctx) })
}

// OnKey advances when the pending step is bound to key.
func (s *Session) OnKey(ctx context.Context, key string) bool {
	return s.navigate(ctx, func() bool { return s.machine.OnKey(ctx, key) })
}

// GoTo jumps to the start of slideIndex.
func (s *Session) GoTo(ctx context.Context, slideIndex int) bool {
	return s.navigate(ctx, func() bool { return s.machine.GoTo(ctx, slideIndex) })
}

// MovePointer mirrors the laser pointer. Coordinates are normalized to [0,1].
func (s *Session) MovePointer(ctx context.Context, x, y float64, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Mode() != domain.ModePresenting {
		return
	}
	msg := domain.PointerMessage(x, y, visible)
	s.pointer = msg.Pointer
	if s.peer != nil {
		if err := s.peer.Send(ctx, msg); err != nil {
			s.logger.Debug("pointer not mirrored", "err", err)
		}
	}
	s.render(ctx)
}

// Exit leaves the presentation and tells the paired window to do the same.
func (s *Session) Exit(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Mode() != domain.ModePresenting {
		return false
	}
	if s.peer != nil {
		if err := s.peer.Send(ctx, domain.ExitMessage()); err != nil {
			s.logger.Warn("exit not mirrored", "err", err)
		}
	}
	s.teardown(ctx)
	return true
}

// Execute applies one command and reports whether the presentation is over.
// An exit carrying a key first offers that key to a pending on-key step.
func (s *Session) Execute(ctx context.Context, cmd Command) bool {
	switch cmd.Kind {
	case CommandAdvance:
		s.Advance(ctx)
	case CommandBack:
		s.GoBack(ctx)
	case CommandKey:
		s.OnKey(ctx, cmd.Key)
	case CommandGoTo:
		s.GoTo(ctx, cmd.Slide)
	case CommandPointer:
		s.MovePointer(ctx, cmd.X, cmd.Y, cmd.Visible)
	case CommandExit:
		if cmd.Key != "" && s.OnKey(ctx, cmd.Key) {
			return false
		}
		s.Exit(ctx)
		return true
	}
	return false
}

// Done is closed when the current presentation ends, for any reason. It is nil before Start.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Mode returns whether the session is presenting.
func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Mode()
}

// State returns the playback position.
func (s *Session) State() domain.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Steps returns the compiled steps of the current slide.
func (s *Session) Steps() []domain.AnimationStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Steps()
}

// Elapsed returns the presenter clock.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

// Frame returns what the session currently shows.
func (s *Session) Frame() (domain.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame()
}

func (s *Session) navigate(ctx context.Context, move func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !move() {
		return false
	}
	s.render(ctx)
	return true
}

func (s *Session) listen(ctx context.Context, gen uint64, in <-chan domain.ChannelMessage) {
	for msg := range in {
		s.handle(ctx, gen, msg)
	}
}

func (s *Session) handle(ctx context.Context, gen uint64, msg domain.ChannelMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.machine.Mode() != domain.ModePresenting {
		// A finished session never applies incoming messages.
		return
	}

	s.logger.Debug("channel message received", "message", msg.String())
	switch msg.Type {
	case domain.MessageNavigate:
		if s.machine.Apply(ctx, msg.State) {
			s.render(ctx)
		}
	case domain.MessageSyncRequest:
		if err := s.peer.Send(ctx, domain.NavigateMessage(s.machine.State())); err != nil {
			s.logger.Warn("sync reply not sent", "err", err)
		}
	case domain.MessageExit:
		s.teardown(context.WithoutCancel(ctx))
	case domain.MessagePointer:
		s.pointer = msg.Pointer
		s.render(ctx)
	}
}

func (s *Session) clock(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.gen == gen && s.machine.Mode() == domain.ModePresenting {
				s.render(ctx)
			}
			s.mu.Unlock()
		}
	}
}

func (s *Session) watch(ctx context.Context, gen uint64) {
	w, ok := s.deck.(ports.Watchable)
	if !ok {
		return
	}
	events, err := w.Watch(ctx)
	if err != nil {
		s.logger.Warn("live reload unavailable", "err", err)
		return
	}
	go func() {
		for id := range events {
			s.mu.Lock()
			if s.gen == gen && s.machine.Mode() == domain.ModePresenting {
				s.logger.Info("deck changed, recompiling", "slide", id)
				s.machine.Invalidate(ctx)
				s.render(ctx)
			}
			s.mu.Unlock()
		}
	}()
}

func (s *Session) openAudience(ctx context.Context) {
	if s.opener != nil && s.peer != nil {
		w, err := s.opener.Open(ctx, s.peer.Topic())
		if err != nil {
			s.logger.Warn("audience window not opened", "err", err)
		} else {
			s.window = w
		}
	}
	if s.display != nil {
		if err := s.display.RequestFullscreen(ctx); err != nil {
			s.logger.Warn("full-screen request refused", "err", err)
		}
	}
}

// teardown returns to Idle and releases everything the presentation holds. Caller holds mu.
func (s *Session) teardown(ctx context.Context) {
	s.machine.Exit(ctx)
	s.stoppedAt = s.now()

	if s.window != nil {
		if err := s.window.Close(); err != nil {
			s.logger.Warn("audience window not closed", "err", err)
		}
		s.window = nil
	}
	if s.role == RoleDriver && s.display != nil {
		if err := s.display.ExitFullscreen(ctx); err != nil {
			s.logger.Warn("leaving full-screen failed", "err", err)
		}
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.releaseLease(ctx)

	if s.done != nil {
		close(s.done)
	}
	s.render(ctx)
}

// claim takes the driver lease on topic. Caller holds mu.
func (s *Session) claim(ctx context.Context, topic string) (ports.RenewFunc, error) {
	if rl, ok := s.locker.(ports.RenewableLocker); ok {
		lease, err := rl.TryLease(ctx, topic, s.leaseTTL)
		if err != nil {
			return nil, err
		}
		s.unlock = lease.Unlock
		return lease.Renew, nil
	}
	unlock, err := s.locker.TryLock(ctx, topic, s.leaseTTL)
	if err != nil {
		return nil, err
	}
	s.unlock = unlock
	return nil, nil
}

// keepLease renews the driver lease every third of its TTL until ctx ends or the lease is lost.
func (s *Session) keepLease(ctx context.Context, renew ports.RenewFunc) {
	ticker := time.NewTicker(max(s.leaseTTL/3, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := renew(ctx, s.leaseTTL)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return
		case errors.Is(err, domain.ErrLeaseLost):
			s.logger.Warn("driver lease lost, another presenter may take the topic", "err", err)
			return
		default:
			s.logger.Warn("driver lease not renewed", "err", err)
		}
	}
}

func (s *Session) releaseLease(ctx context.Context) {
	if s.unlock == nil {
		return
	}
	if err := s.unlock(ctx); err != nil {
		s.logger.Warn("lease not released", "err", err)
	}
	s.unlock = nil
}

func (s *Session) elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	if !s.stoppedAt.IsZero() {
		return s.stoppedAt.Sub(s.startedAt)
	}
	return s.now().Sub(s.startedAt)
}

func (s *Session) frame() (domain.Frame, error) {
	frame, err := s.machine.Frame()
	if err != nil {
		return frame, err
	}
	frame.Elapsed = s.elapsed()
	frame.Pointer = s.pointer
	return frame, nil
}

func (s *Session) render(ctx context.Context) {
	if s.renderer == nil {
		return
	}
	frame, err := s.frame()
	if err != nil {
		s.logger.Warn("frame unavailable", "err", err)
		return
	}
	if err := s.renderer.Render(ctx, frame); err != nil {
		s.logger.Warn("render failed", "err", err)
	}
}
