package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/marquee/pkg/adapters/memory"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeck() *memory.Deck {
	return memory.NewDeck(
		domain.Slide{
			ID:       "intro",
			Elements: []domain.Element{{ID: "a"}, {ID: "b"}},
			Animations: []domain.Animation{
				{Target: "a", Trigger: domain.TriggerOnClick, Duration: 300},
				{Target: "b", Trigger: domain.TriggerOnKey, Key: "v", Duration: 200},
			},
		},
		domain.Slide{
			ID:         "broken",
			Elements:   []domain.Element{{ID: "x"}},
			Animations: []domain.Animation{{Target: "x", Trigger: domain.TriggerWithPrevious}},
		},
	)
}

func TestListSlides(t *testing.T) {
	s := NewServer(testDeck())

	list, err := s.handleListSlides(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, list.Slides, 2)
	assert.Equal(t, SlideInfo{Index: 0, ID: "intro", Animations: 2, Steps: 2}, list.Slides[0])
	assert.NotEmpty(t, list.Slides[1].Error)
}

func TestCompileSteps(t *testing.T) {
	s := NewServer(testDeck())
	ctx := context.Background()

	res, err := s.handleCompileSteps(ctx, mcp.CallToolRequest{}, SlideArgs{Slide: 0})
	require.NoError(t, err)
	require.Len(t, res.Steps, 2)
	assert.True(t, res.Steps[1].MatchesKey("v"))

	_, err = s.handleCompileSteps(ctx, mcp.CallToolRequest{}, SlideArgs{Slide: 1})
	assert.ErrorIs(t, err, domain.ErrOrphanChain)

	_, err = s.handleCompileSteps(ctx, mcp.CallToolRequest{}, SlideArgs{Slide: 5})
	assert.ErrorIs(t, err, domain.ErrSlideOutOfRange)
}

func TestPreviewSlide(t *testing.T) {
	s := NewServer(testDeck())
	ctx := context.Background()

	sched, err := s.handlePreviewSlide(ctx, mcp.CallToolRequest{}, PreviewArgs{Slide: 0})
	require.NoError(t, err)
	assert.Equal(t, []domain.Millis{0, 300}, sched.FlashTimes)
	assert.Equal(t, domain.Millis(500), sched.End)

	_, err = s.handlePreviewSlide(ctx, mcp.CallToolRequest{}, PreviewArgs{Slide: 0, Mode: "one"})
	assert.NoError(t, err)

	_, err = s.handlePreviewSlide(ctx, mcp.CallToolRequest{}, PreviewArgs{Slide: 0, Mode: "twice"})
	assert.ErrorContains(t, err, "unknown preview mode")
}

func TestControl(t *testing.T) {
	deck := memory.NewDeck(domain.Slide{
		ID: "intro",
		Animations: []domain.Animation{
			{Target: "a", Trigger: domain.TriggerOnClick, Duration: 300},
			{Target: "b", Trigger: domain.TriggerOnKey, Key: "v", Duration: 200},
		},
	})
	session := runner.NewSession(deck)
	s := NewServer(deck, WithController(session))
	ctx := context.Background()

	_, err := s.run(ctx, runner.Command{Kind: runner.CommandAdvance})
	assert.ErrorIs(t, err, ErrNoPresentation, "idle sessions are not driven")

	require.NoError(t, session.Start(ctx, 0))
	defer session.Exit(ctx)

	res, err := s.run(ctx, runner.Command{Kind: runner.CommandAdvance})
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, 1, res.ActiveStep)
	assert.Equal(t, "v", res.NextKey)

	res, err = s.run(ctx, runner.Command{Kind: runner.CommandKey, Key: "x"})
	require.NoError(t, err)
	assert.False(t, res.Moved)

	res, err = s.run(ctx, runner.Command{Kind: runner.CommandKey, Key: "v"})
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, 2, res.ActiveStep)
	assert.Empty(t, res.NextKey)
}

func TestDeckResource(t *testing.T) {
	s := NewServer(testDeck())
	text, err := s.deckJSON()
	require.NoError(t, err)

	var deck domain.Deck
	require.NoError(t, json.Unmarshal([]byte(text), &deck))
	require.Len(t, deck.Slides, 2)
	assert.Equal(t, "intro", deck.Slides[0].ID)
}
