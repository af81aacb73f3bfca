package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/marquee/pkg/domain"
)

// LoggingHooks logs every playback event at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(ctx context.Context, e *domain.PlaybackEvent) {
		logger.InfoContext(ctx, string(e.Type),
			"slide", e.To.SlideIndex,
			"step", e.To.ActiveStep,
			"steps", e.Steps,
			"origin", e.Origin,
		)
	}
	return domain.LifecycleHooks{
		OnStart:       log,
		OnStepChange:  log,
		OnSlideChange: log,
		OnExit:        log,
	}
}
