package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/muesli/termenv"
)

const (
	colorAccent = "#a78bfa"
	colorHint   = "#fbbf24"
)

// Console paints frames on a terminal. It implements ports.Renderer.
// The presenter view adds hidden elements, the next-step hint and speaker notes;
// the audience view only shows what is visible plus the pointer.
type Console struct {
	out      *termenv.Output
	outOpts  []termenv.OutputOption
	markdown MarkdownFunc
	audience bool
	mu       sync.Mutex
}

// ConsoleOption configures the console.
type ConsoleOption func(*Console)

// AsAudience selects the audience view.
func AsAudience() ConsoleOption {
	return func(c *Console) {
		c.audience = true
	}
}

// WithMarkdown renders markdown elements and notes through f.
func WithMarkdown(f MarkdownFunc) ConsoleOption {
	return func(c *Console) {
		c.markdown = f
	}
}

// WithProfile forces a color profile; termenv.Ascii disables styling.
func WithProfile(p termenv.Profile) ConsoleOption {
	return func(c *Console) {
		c.outOpts = append(c.outOpts, termenv.WithProfile(p))
	}
}

// NewConsole creates a console writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{}
	for _, opt := range opts {
		opt(c)
	}
	c.out = termenv.NewOutput(w, c.outOpts...)
	return c
}

// Render implements ports.Renderer.
func (c *Console) Render(_ context.Context, f domain.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder
	if f.Mode != domain.ModePresenting {
		sb.WriteString(c.out.String("presentation ended").Faint().String())
		sb.WriteString("\r\n")
		return c.flush(sb.String())
	}

	header := fmt.Sprintf("[%d/%d] %s", f.State.SlideIndex+1, f.SlideCount, titleOf(f.Slide))
	sb.WriteString(c.out.String(header).Bold().Foreground(c.out.Color(colorAccent)).String())
	sb.WriteString(c.out.String("  " + clock(f.Elapsed)).Faint().String())
	sb.WriteString("\r\n")
	sb.WriteString(progress(f))
	sb.WriteString("\r\n\r\n")

	for _, e := range f.Slide.Elements {
		visible := f.Visible(e.ID)
		switch {
		case visible:
			sb.WriteString(c.element(e))
		case !c.audience:
			sb.WriteString(c.out.String(fmt.Sprintf("· %s (hidden)", e.ID)).Faint().String())
		default:
			continue
		}
		sb.WriteString("\r\n")
	}

	if c.audience {
		if f.Pointer.Visible {
			sb.WriteString(fmt.Sprintf("\r\npointer %.0f%% %.0f%%\r\n", f.Pointer.X*100, f.Pointer.Y*100))
		}
		return c.flush(sb.String())
	}

	sb.WriteString("\r\n")
	sb.WriteString(c.out.String(hint(f)).Foreground(c.out.Color(colorHint)).String())
	sb.WriteString("\r\n")
	if f.Slide.Notes != "" {
		sb.WriteString("\r\n")
		sb.WriteString(c.out.String("notes").Underline().String())
		sb.WriteString("\r\n")
		sb.WriteString(c.render(f.Slide.Notes))
		sb.WriteString("\r\n")
	}
	return c.flush(sb.String())
}

func (c *Console) flush(body string) error {
	c.out.ClearScreen()
	_, err := io.WriteString(c.out, body)
	return err
}

func (c *Console) element(e domain.Element) string {
	if e.Kind == "markdown" {
		return c.render(e.Content)
	}
	if e.Content == "" {
		return fmt.Sprintf("[%s]", e.ID)
	}
	return e.Content
}

func (c *Console) render(md string) string {
	if c.markdown == nil {
		return crlf(md)
	}
	out, err := c.markdown(md)
	if err != nil {
		return crlf(md)
	}
	return crlf(strings.TrimRight(out, "\n"))
}

// crlf keeps lines aligned while the terminal is in raw mode.
func crlf(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\r\n")
}

func titleOf(s domain.Slide) string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

func progress(f domain.Frame) string {
	if len(f.Steps) == 0 {
		return "no steps"
	}
	return fmt.Sprintf("%s%s %d/%d",
		strings.Repeat("●", f.State.ActiveStep),
		strings.Repeat("○", len(f.Steps)-f.State.ActiveStep),
		f.State.ActiveStep, len(f.Steps))
}

func hint(f domain.Frame) string {
	if step, ok := f.NextStep(); ok {
		if step.Trigger == domain.TriggerOnKey {
			return fmt.Sprintf("next: press %q or advance (%s)", step.Key, strings.Join(targets(step), ", "))
		}
		return fmt.Sprintf("next: click (%s)", strings.Join(targets(step), ", "))
	}
	if f.State.SlideIndex+1 < f.SlideCount {
		return "next: slide"
	}
	return "end of deck"
}

func targets(step domain.AnimationStep) []string {
	out := make([]string, 0, len(step.Animations))
	for _, id := range step.Targets() {
		out = append(out, string(id))
	}
	return out
}

func clock(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
