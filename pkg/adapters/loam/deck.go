// Package loam reads a deck from a directory of documents managed by Loam.
//
// Each Markdown (or JSON/YAML) document is a slide. Front-matter carries the slide
// id, title, order, elements and animations; the Markdown body becomes a "body"
// element. Slides are sorted by order, then by id.
package loam

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/aretw0/marquee/internal/deckspec"
	"github.com/aretw0/marquee/pkg/domain"
)

// BodyElement is the id given to the Markdown body of a slide.
const BodyElement domain.ElementID = "body"

// Deck adapts a Loam repository to ports.DeckSource and ports.Watchable.
// It serves a snapshot taken by Reload; Watch refreshes it on every change.
type Deck struct {
	Repo *loam.TypedRepository[SlideMetadata]

	title   string
	options deckspec.Options
	logger  *slog.Logger

	mu     sync.RWMutex
	slides []domain.Slide
}

// Option configures a Deck.
type Option func(*Deck)

// WithTitle sets the deck title.
func WithTitle(title string) Option {
	return func(d *Deck) {
		d.title = title
	}
}

// WithDefaultDuration sets the duration of animations that do not author one.
func WithDefaultDuration(ms domain.Millis) Option {
	return func(d *Deck) {
		d.options.DefaultDuration = ms
	}
}

// WithLogger sets the logger used for reload failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deck) {
		d.logger = logger
	}
}

// New creates a deck over repo. Call Reload before reading slides.
func New(repo *loam.TypedRepository[SlideMetadata], opts ...Option) *Deck {
	d := &Deck{
		Repo:    repo,
		options: deckspec.Defaults(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open initializes a read-only Loam repository at path and loads it.
// The deck title defaults to the directory name.
func Open(ctx context.Context, path string, opts ...Option) (*Deck, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numbers as json.Number instead of float64.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	d := New(loam.NewTypedRepository[SlideMetadata](repo), append([]Option{WithTitle(filepath.Base(absPath))}, opts...)...)
	if err := d.Reload(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Title returns the deck title.
func (d *Deck) Title() string {
	return d.title
}

// SlideCount returns the number of slides in the snapshot.
func (d *Deck) SlideCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slides)
}

// Slide returns a copy of slide i.
func (d *Deck) Slide(i int) (domain.Slide, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.slides) {
		return domain.Slide{}, fmt.Errorf("%w: %d of %d", domain.ErrSlideOutOfRange, i, len(d.slides))
	}
	s := d.slides[i]
	s.Elements = slices.Clone(s.Elements)
	s.Animations = slices.Clone(s.Animations)
	return s, nil
}

// Reload reads every document and replaces the snapshot.
// On error the previous snapshot is kept.
func (d *Deck) Reload(ctx context.Context) error {
	docs, err := d.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}

	type entry struct {
		order int
		slide domain.Slide
		path  string
	}
	entries := make([]entry, 0, len(docs))
	seen := make(map[string]string, len(docs))
	var errs []error

	for _, doc := range docs {
		meta := doc.Data
		id := meta.ID
		if id == "" {
			id = doc.ID
		}
		id = trimExtension(id)

		if existing, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID))
			continue
		}
		seen[id] = doc.ID

		slide, err := d.decode(id, meta, doc.Content)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		entries = append(entries, entry{order: meta.Order, slide: slide, path: doc.ID})
	}
	if err := domain.Join(errs...); err != nil {
		return err
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.order, b.order), cmp.Compare(a.slide.ID, b.slide.ID))
	})

	slides := make([]domain.Slide, len(entries))
	for i, e := range entries {
		slides[i] = e.slide
	}

	d.mu.Lock()
	d.slides = slides
	d.mu.Unlock()
	return nil
}

func (d *Deck) decode(id string, meta SlideMetadata, content string) (domain.Slide, error) {
	spec := deckspec.SlideSpec{ID: id, Title: meta.Title, Notes: meta.Notes}
	if err := deckspec.Decode(meta.Elements, &spec.Elements); err != nil {
		return domain.Slide{}, fmt.Errorf("elements: %w", err)
	}
	if err := deckspec.Decode(meta.Animations, &spec.Animations); err != nil {
		return domain.Slide{}, fmt.Errorf("animations: %w", err)
	}

	slide := spec.Slide(0, d.options)
	body := strings.TrimSpace(content)
	if body != "" && !slices.ContainsFunc(slide.Elements, func(e domain.Element) bool { return e.ID == BodyElement }) {
		slide.Elements = append(slide.Elements, domain.Element{ID: BodyElement, Kind: "markdown", Content: body})
	}
	return slide, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable. The snapshot is reloaded before the
// changed document ID is delivered.
func (d *Deck) Watch(ctx context.Context) (<-chan string, error) {
	events, err := d.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if err := d.Reload(ctx); err != nil {
					d.logger.Warn("deck reload failed", "id", evt.ID, "err", err)
					continue
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
