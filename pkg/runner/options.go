package runner

import (
	"log/slog"
	"time"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures where commands come from.
func WithInputHandler(handler InputHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSignalHandling ends the presentation on SIGINT/SIGTERM.
func WithSignalHandling(enabled bool) Option {
	return func(r *Runner) {
		r.HandleSignals = enabled
	}
}

// WithSignalGrace bounds how long an input error waits for a pending signal.
func WithSignalGrace(d time.Duration) Option {
	return func(r *Runner) {
		r.SignalGrace = d
	}
}
