package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
)

// PresenceHooks keeps store up to date with the position of the presentation
// described by base: announced on every change, withdrawn on exit.
// Store failures are logged and never interrupt playback.
func PresenceHooks(store ports.PresenceStore, base domain.Presence, logger *slog.Logger) domain.LifecycleHooks {
	announce := func(ctx context.Context, e *domain.PlaybackEvent) {
		p := base
		p.State = e.To
		p.UpdatedAt = e.Timestamp
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Now()
		}
		if err := store.Announce(ctx, p); err != nil {
			logger.Warn("presence announce failed", "topic", base.Topic, "err", err)
		}
	}
	return domain.LifecycleHooks{
		OnStart:       announce,
		OnStepChange:  announce,
		OnSlideChange: announce,
		OnExit: func(ctx context.Context, e *domain.PlaybackEvent) {
			if err := store.Withdraw(context.WithoutCancel(ctx), base.Topic); err != nil {
				logger.Warn("presence withdraw failed", "topic", base.Topic, "err", err)
			}
		},
	}
}
