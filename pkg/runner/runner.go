package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
)

// Runner feeds presenter input into a session until the presentation ends.
type Runner struct {
	// Handler is the input strategy. Defaults to a KeyHandler on stdin.
	Handler InputHandler

	// Logger is used for internal debug logging. If nil, a no-op logger is used.
	Logger *slog.Logger

	// HandleSignals ends the presentation on SIGINT/SIGTERM.
	HandleSignals bool

	// SignalGrace bounds how long an input error waits for a pending signal.
	SignalGrace time.Duration
}

// NewRunner creates a Runner with options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the session at slideIndex (unless it is already presenting) and
// dispatches input until exit, end of input, or the session ending remotely.
// The session is always left Idle.
func (r *Runner) Run(ctx context.Context, session *Session, slideIndex int) error {
	handler := r.Handler
	if handler == nil {
		handler = NewKeyHandler(os.Stdin)
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var signals *SignalManager
	if r.HandleSignals {
		signals = NewSignalManager(ctx, r.SignalGrace)
		defer signals.Stop()
		ctx = signals.Context()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if session.Mode() != domain.ModePresenting {
		if err := session.Start(runCtx, slideIndex); err != nil {
			return fmt.Errorf("start presentation: %w", err)
		}
	}
	// Leave on any path; a no-op when the session already ended.
	defer session.Exit(context.WithoutCancel(ctx))

	done := session.Done()
	go func() {
		select {
		case <-done:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		cmd, err := handler.Next(runCtx)
		if err != nil {
			if signals != nil && signals.Settle() {
				logger.Debug("presentation interrupted by signal")
				return nil
			}
			switch {
			case isClosed(done):
				logger.Debug("presentation ended by paired window")
				return nil
			case runCtx.Err() != nil:
				logger.Debug("presentation interrupted", "cause", runCtx.Err())
				return nil
			case errors.Is(err, io.EOF):
				return nil
			case errors.Is(err, ErrInvalidCommand):
				logger.Warn("ignoring input", "err", err)
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		if session.Execute(runCtx, cmd) {
			return nil
		}
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
