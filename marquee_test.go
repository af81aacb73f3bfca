package marquee_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/internal/deckspec"
	"github.com/aretw0/marquee/internal/testutils"
	"github.com/aretw0/marquee/pkg/adapters/memory"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deckYAML = `
title: Launch
slides:
  - id: intro
    elements: [{id: e1}, {id: e2}, {id: e3}]
    animations:
      - {target: e1, trigger: on-enter, duration: 600}
      - {target: e2, trigger: on-click, duration: 300}
      - {target: e3, trigger: after-previous, delay: 100, duration: 300}
  - id: broken
    elements: [{id: x}]
    animations:
      - {target: x, trigger: with-previous}
      - {target: ghost, trigger: on-click}
`

func TestNew_FileDeck(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"deck.yaml": deckYAML})

	eng, err := marquee.New(context.Background(), filepath.Join(dir, "deck.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Launch", eng.Name)
	assert.Equal(t, 2, eng.Deck().SlideCount())

	steps, err := eng.Steps(0)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, []domain.ElementID{"e2", "e3"}, steps[0].Targets())

	sched, err := eng.Preview(0, marquee.PreviewModeAll)
	require.NoError(t, err)
	assert.Equal(t, []domain.Millis{600}, sched.FlashTimes)
	assert.Equal(t, domain.Millis(1300), sched.End)

	one, err := eng.Preview(0, marquee.PreviewModeOne)
	require.NoError(t, err)
	assert.Equal(t, domain.Millis(1300), one.End)

	_, err = eng.Preview(0, "random")
	assert.Error(t, err)

	_, err = eng.Steps(1)
	assert.ErrorIs(t, err, domain.ErrOrphanChain)

	_, err = eng.Steps(9)
	assert.ErrorIs(t, err, domain.ErrSlideOutOfRange)
}

func TestEngine_Validate(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"deck.yaml": deckYAML})
	eng, err := marquee.New(context.Background(), filepath.Join(dir, "deck.yaml"))
	require.NoError(t, err)

	err = eng.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOrphanChain)
	assert.ErrorIs(t, err, deckspec.ErrUnknownTarget)

	compileErrs := domain.CompileErrors(err)
	require.Len(t, compileErrs, 2)
	for _, ce := range compileErrs {
		assert.Equal(t, 1, ce.SlideIndex)
	}
}

func TestNew_DirectoryDeck(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"intro.md": "---\norder: 1\nelements: [{id: logo}]\nanimations:\n  - {target: logo, trigger: on-key, key: v}\n---\n# Hi\n",
	})

	eng, err := marquee.New(context.Background(), dir, marquee.WithDefaultDuration(250))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), eng.Name)

	steps, err := eng.Steps(0)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "v", steps[0].Key)
	assert.Equal(t, domain.Millis(250), steps[0].Anchor().Duration)
	assert.NoError(t, eng.Validate())
}

func TestNew_Errors(t *testing.T) {
	_, err := marquee.New(context.Background(), "")
	assert.Error(t, err)

	_, err = marquee.New(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEngine_SessionHooks(t *testing.T) {
	deck := memory.NewDeck(domain.Slide{ID: "a"}, domain.Slide{ID: "b"})

	var events []domain.EventType
	record := func(_ context.Context, e *domain.PlaybackEvent) { events = append(events, e.Type) }
	eng, err := marquee.New(context.Background(), "",
		marquee.WithDeck(deck),
		marquee.WithLifecycleHooks(domain.LifecycleHooks{OnStart: record, OnSlideChange: record, OnExit: record}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	s := eng.NewSession()
	require.NoError(t, s.Start(ctx, 0))
	s.Advance(ctx)
	s.Exit(ctx)

	assert.Equal(t, []domain.EventType{domain.EventStart, domain.EventSlideChange, domain.EventExit}, events)
	assert.NoError(t, eng.Validate())
}
