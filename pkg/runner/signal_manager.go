package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultSignalGrace is how long an input error waits for a pending interrupt.
const DefaultSignalGrace = 100 * time.Millisecond

// SignalManager ends a presentation on SIGINT/SIGTERM.
// Raw terminals often report EOF just before the interrupt reaches the process;
// Settle lets the loop attribute the stop to the signal instead of the input.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
	grace  time.Duration
}

// NewSignalManager starts listening for signals on top of parent.
func NewSignalManager(parent context.Context, grace time.Duration) *SignalManager {
	if grace <= 0 {
		grace = DefaultSignalGrace
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, cancel: cancel, grace: grace}
}

// Context is cancelled by a signal or by the parent.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop releases the signal listener.
func (sm *SignalManager) Stop() {
	sm.cancel()
}

// Settle waits up to the grace period for the context to end and reports
// whether it did.
func (sm *SignalManager) Settle() bool {
	if sm.ctx.Err() != nil {
		return true
	}
	t := time.NewTimer(sm.grace)
	defer t.Stop()
	select {
	case <-sm.ctx.Done():
		return true
	case <-t.C:
		return false
	}
}
