package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/marquee/pkg/adapters/memory"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
	contract "github.com/aretw0/marquee/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSlides() []domain.Slide {
	return []domain.Slide{
		{
			ID:       "intro",
			Title:    "Intro",
			Elements: []domain.Element{{ID: "title", Kind: "text", Content: "Hello"}},
			Animations: []domain.Animation{
				{Target: "title", Trigger: domain.TriggerOnClick, Effect: "fade-in", Duration: 300},
			},
		},
		{ID: "end", Title: "End"},
	}
}

func TestDeck_Contract(t *testing.T) {
	slides := sampleSlides()
	contract.RunDeckSourceContract(t, memory.NewDeck(slides...), slides)
}

func TestHub_Contract(t *testing.T) {
	contract.RunTransportContract(t, func(t *testing.T) ports.Transport {
		return memory.NewHub()
	})
}

func TestDeck_WatchNotifiesEdits(t *testing.T) {
	deck := memory.NewDeck(sampleSlides()...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := deck.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, deck.SetAnimations(1, []domain.Animation{{Target: "x", Trigger: domain.TriggerOnClick}}))

	select {
	case id := <-events:
		assert.Equal(t, "end", id)
	case <-time.After(time.Second):
		t.Fatal("no watch event")
	}

	slide, err := deck.Slide(1)
	require.NoError(t, err)
	assert.Len(t, slide.Animations, 1)

	assert.ErrorIs(t, deck.SetAnimations(9, nil), domain.ErrSlideOutOfRange)
}

func TestHub_DropsWhenFull(t *testing.T) {
	hub := memory.NewHub(memory.WithBuffer(1))
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "t")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, hub.Publish(ctx, "t", []byte("first")))
	require.NoError(t, hub.Publish(ctx, "t", []byte("second")))

	assert.Equal(t, "first", string(<-sub.Messages()))
	select {
	case msg := <-sub.Messages():
		t.Fatalf("unexpected message %q", msg)
	default:
	}
}

func TestHub_CloseUnregisters(t *testing.T) {
	hub := memory.NewHub()
	sub, err := hub.Subscribe(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("t"))

	require.NoError(t, sub.Close())
	assert.Equal(t, 0, hub.Subscribers("t"))
}
