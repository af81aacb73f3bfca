package marquee

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/marquee/internal/compiler"
	"github.com/aretw0/marquee/internal/deckspec"
	"github.com/aretw0/marquee/internal/preview"
	"github.com/aretw0/marquee/pkg/adapters/file"
	loamAdapter "github.com/aretw0/marquee/pkg/adapters/loam"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
	"github.com/aretw0/marquee/pkg/runner"
)

// Deck is a titled deck source.
type Deck interface {
	ports.DeckSource
	Title() string
}

// PreviewMode selects how a slide preview is simulated.
type PreviewMode string

const (
	// PreviewModeAll plays on-enter animations, then every step as if clicked.
	PreviewModeAll PreviewMode = "all"
	// PreviewModeOne plays the animations one after another, ignoring triggers.
	PreviewModeOne PreviewMode = "one"
)

// Engine is the high-level entry point for the marquee library.
// It binds a deck to the step compiler, the preview scheduler and playback sessions.
type Engine struct {
	deck            Deck
	defaultDuration domain.Millis
	hooks           domain.LifecycleHooks
	logger          *slog.Logger
	Name            string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithDeck injects a deck, bypassing path resolution.
func WithDeck(d Deck) Option {
	return func(e *Engine) {
		e.deck = d
	}
}

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDefaultDuration sets the duration of animations authored without one.
func WithDefaultDuration(ms domain.Millis) Option {
	return func(e *Engine) {
		e.defaultDuration = ms
	}
}

// New opens the deck at path: a directory is read as Markdown slides through Loam,
// a file as a YAML or JSON deck. If WithDeck is provided, path can be empty.
func New(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		defaultDuration: domain.DefaultDuration,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.deck != nil {
		eng.Name = eng.deck.Title()
		return eng, nil
	}
	if path == "" {
		return nil, fmt.Errorf("deck path is required when no deck is provided")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck: %w", err)
	}

	if info.IsDir() {
		deck, err := loamAdapter.Open(ctx, absPath,
			loamAdapter.WithDefaultDuration(eng.defaultDuration),
			loamAdapter.WithLogger(eng.logger),
		)
		if err != nil {
			return nil, err
		}
		eng.deck = deck
	} else {
		deck, err := file.Load(absPath, file.WithDefaultDuration(eng.defaultDuration))
		if err != nil {
			return nil, err
		}
		eng.deck = deck
	}

	eng.Name = eng.deck.Title()
	if eng.Name == "" {
		eng.Name = filepath.Base(absPath)
	}
	eng.logger.Debug("deck opened", "path", absPath, "slides", eng.deck.SlideCount())
	return eng, nil
}

// Deck returns the deck being served.
func (e *Engine) Deck() Deck {
	return e.deck
}

// Steps compiles the animation list of slide i.
func (e *Engine) Steps(i int) ([]domain.AnimationStep, error) {
	slide, err := e.deck.Slide(i)
	if err != nil {
		return nil, err
	}
	return compiler.CompileSlide(i, slide.Animations)
}

// Preview simulates playback of slide i.
func (e *Engine) Preview(i int, mode PreviewMode) (domain.PreviewSchedule, error) {
	slide, err := e.deck.Slide(i)
	if err != nil {
		return domain.PreviewSchedule{}, err
	}
	switch mode {
	case PreviewModeAll, "":
		return preview.PreviewSlide(i, slide.Animations)
	case PreviewModeOne:
		return preview.PreviewOne(slide.Animations), nil
	}
	return domain.PreviewSchedule{}, fmt.Errorf("unknown preview mode %q", mode)
}

// Validate compiles every slide and lints the deck, aggregating all errors.
func (e *Engine) Validate() error {
	_, compileErr := compiler.CompileDeck(e.deck)

	snapshot := domain.Deck{Title: e.deck.Title()}
	for i := 0; i < e.deck.SlideCount(); i++ {
		slide, err := e.deck.Slide(i)
		if err != nil {
			continue
		}
		snapshot.Slides = append(snapshot.Slides, slide)
	}
	return domain.Join(compileErr, deckspec.Validate(snapshot))
}

// NewSession creates an idle session over the deck with the engine's logger and hooks.
func (e *Engine) NewSession(opts ...runner.SessionOption) *runner.Session {
	base := []runner.SessionOption{
		runner.WithSessionLogger(e.logger),
		runner.WithSessionHooks(e.hooks),
	}
	return runner.NewSession(e.deck, append(base, opts...)...)
}
