package ports

import (
	"context"

	"github.com/aretw0/marquee/pkg/domain"
)

// Renderer paints a frame. It interprets effect names and decides which elements are
// visible or animating from (active step, steps); the engine never touches pixels.
type Renderer interface {
	Render(ctx context.Context, frame domain.Frame) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, frame domain.Frame) error

// Render calls f(ctx, frame).
func (f RendererFunc) Render(ctx context.Context, frame domain.Frame) error {
	return f(ctx, frame)
}
