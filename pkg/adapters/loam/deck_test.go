package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/marquee/internal/testutils"
	marqueeloam "github.com/aretw0/marquee/pkg/adapters/loam"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deckFiles = map[string]string{
	"b-outro.md": `---
order: 2
title: Thanks
---
Questions?`,
	"a-intro.md": `---
id: intro
order: 1
title: Hello
elements:
  - id: logo
    kind: image
animations:
  - target: logo
    trigger: on-click
    effect: fade-in
    duration: 1.5s
  - target: body
    trigger: with-previous
    effect: rise
    delay: 200
---
# Welcome`,
}

func expectedSlides() []domain.Slide {
	return []domain.Slide{
		{
			ID:    "intro",
			Title: "Hello",
			Elements: []domain.Element{
				{ID: "logo", Kind: "image"},
				{ID: marqueeloam.BodyElement, Kind: "markdown", Content: "# Welcome"},
			},
			Animations: []domain.Animation{
				{Target: "logo", Trigger: domain.TriggerOnClick, Effect: "fade-in", Duration: 1500},
				{Target: "body", Trigger: domain.TriggerWithPrevious, Effect: "rise", Delay: 200, Duration: domain.DefaultDuration},
			},
		},
		{
			ID:       "b-outro",
			Title:    "Thanks",
			Elements: []domain.Element{{ID: marqueeloam.BodyElement, Kind: "markdown", Content: "Questions?"}},
		},
	}
}

func TestDeck_Contract(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, deckFiles)

	deck := marqueeloam.New(loam.NewTypedRepository[marqueeloam.SlideMetadata](repo), marqueeloam.WithTitle("Demo"))
	require.NoError(t, deck.Reload(context.Background()))

	assert.Equal(t, "Demo", deck.Title())
	tests.RunDeckSourceContract(t, deck, expectedSlides())
}

func TestDeck_DefaultDuration(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, deckFiles)

	deck := marqueeloam.New(loam.NewTypedRepository[marqueeloam.SlideMetadata](repo), marqueeloam.WithDefaultDuration(250))
	require.NoError(t, deck.Reload(context.Background()))

	slide, err := deck.Slide(0)
	require.NoError(t, err)
	assert.Equal(t, domain.Millis(1500), slide.Animations[0].Duration)
	assert.Equal(t, domain.Millis(250), slide.Animations[1].Duration)
}

func TestDeck_ReloadPicksUpNewSlides(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, deckFiles)

	deck := marqueeloam.New(loam.NewTypedRepository[marqueeloam.SlideMetadata](repo))
	ctx := context.Background()
	require.NoError(t, deck.Reload(ctx))
	require.Equal(t, 2, deck.SlideCount())

	testutils.WriteFiles(t, dir, map[string]string{"c-extra.md": "---\norder: 3\n---\nMore"})
	require.NoError(t, deck.Reload(ctx))
	assert.Equal(t, 3, deck.SlideCount())
}

func TestDeck_ReloadKeepsSnapshotOnError(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, deckFiles)

	deck := marqueeloam.New(loam.NewTypedRepository[marqueeloam.SlideMetadata](repo))
	ctx := context.Background()
	require.NoError(t, deck.Reload(ctx))

	testutils.WriteFiles(t, dir, map[string]string{"c-bad.md": "---\nanimations:\n  - target: x\n    duration: soon\n---\n"})
	err := deck.Reload(ctx)
	assert.ErrorContains(t, err, "invalid timing")
	assert.Equal(t, 2, deck.SlideCount())
}

func TestDeck_DetectsCollisions(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, map[string]string{
		"one.md": "---\nid: same\n---\nA",
		"two.md": "---\nid: same\n---\nB",
	})

	deck := marqueeloam.New(loam.NewTypedRepository[marqueeloam.SlideMetadata](repo))
	err := deck.Reload(context.Background())
	assert.ErrorContains(t, err, "collision detected")
}
