package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deliveryTimeout = 2 * time.Second

// RunTransportContract is a reusable test suite that verifies if an adapter complies with ports.Transport.
// newTransport must return a fresh transport on every call.
func RunTransportContract(t *testing.T, newTransport func(t *testing.T) ports.Transport) {
	t.Helper()

	t.Run("Publish_NoSubscribers", func(t *testing.T) {
		tr := newTransport(t)
		assert.NoError(t, tr.Publish(context.Background(), "contract:empty", []byte("nobody")))
	})

	t.Run("Delivery_InOrder", func(t *testing.T) {
		tr := newTransport(t)
		ctx := context.Background()

		sub, err := tr.Subscribe(ctx, "contract:order")
		require.NoError(t, err)
		defer sub.Close()

		for _, p := range []string{"one", "two", "three"} {
			require.NoError(t, tr.Publish(ctx, "contract:order", []byte(p)))
		}

		for _, want := range []string{"one", "two", "three"} {
			assert.Equal(t, want, string(receive(t, sub)))
		}
	})

	t.Run("Fanout", func(t *testing.T) {
		tr := newTransport(t)
		ctx := context.Background()

		first, err := tr.Subscribe(ctx, "contract:fanout")
		require.NoError(t, err)
		defer first.Close()
		second, err := tr.Subscribe(ctx, "contract:fanout")
		require.NoError(t, err)
		defer second.Close()

		require.NoError(t, tr.Publish(ctx, "contract:fanout", []byte("hello")))

		assert.Equal(t, "hello", string(receive(t, first)))
		assert.Equal(t, "hello", string(receive(t, second)))
	})

	t.Run("Topic_Isolation", func(t *testing.T) {
		tr := newTransport(t)
		ctx := context.Background()

		sub, err := tr.Subscribe(ctx, "contract:a")
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, tr.Publish(ctx, "contract:b", []byte("other")))
		require.NoError(t, tr.Publish(ctx, "contract:a", []byte("mine")))

		assert.Equal(t, "mine", string(receive(t, sub)))
	})

	t.Run("Close_EndsStream", func(t *testing.T) {
		tr := newTransport(t)
		ctx := context.Background()

		sub, err := tr.Subscribe(ctx, "contract:close")
		require.NoError(t, err)
		require.NoError(t, sub.Close())
		assert.NoError(t, sub.Close(), "Close must be idempotent")

		require.NoError(t, tr.Publish(ctx, "contract:close", []byte("late")))
		drained(t, sub)
	})

	t.Run("Context_EndsStream", func(t *testing.T) {
		tr := newTransport(t)
		ctx, cancel := context.WithCancel(context.Background())

		sub, err := tr.Subscribe(ctx, "contract:ctx")
		require.NoError(t, err)
		cancel()

		drained(t, sub)
	})
}

// RunDeckSourceContract verifies that deck returns exactly the expected slides.
func RunDeckSourceContract(t *testing.T, deck ports.DeckSource, expected []domain.Slide) {
	t.Helper()

	t.Run("SlideCount", func(t *testing.T) {
		assert.Equal(t, len(expected), deck.SlideCount())
	})

	t.Run("Slide_Success", func(t *testing.T) {
		for i, want := range expected {
			got, err := deck.Slide(i)
			require.NoError(t, err, "slide %d", i)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Title, got.Title)
			assert.ElementsMatch(t, want.Elements, got.Elements)
			assert.Equal(t, want.Animations, got.Animations)
		}
	})

	t.Run("Slide_OutOfRange", func(t *testing.T) {
		_, err := deck.Slide(len(expected))
		assert.True(t, errors.Is(err, domain.ErrSlideOutOfRange), "got %v", err)

		_, err = deck.Slide(-1)
		assert.ErrorIs(t, err, domain.ErrSlideOutOfRange)
	})

	t.Run("Slide_ReturnsCopy", func(t *testing.T) {
		if len(expected) == 0 || len(expected[0].Animations) == 0 {
			t.Skip("first slide has no animations")
		}
		got, err := deck.Slide(0)
		require.NoError(t, err)
		got.Animations[0].Target = "mutated"

		again, err := deck.Slide(0)
		require.NoError(t, err)
		assert.Equal(t, expected[0].Animations[0].Target, again.Animations[0].Target)
	})
}

func receive(t *testing.T, sub ports.Subscription) []byte {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed before delivery")
		return msg
	case <-time.After(deliveryTimeout):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

// drained waits until the subscription stream is closed, ignoring anything still in flight.
func drained(t *testing.T, sub ports.Subscription) {
	t.Helper()
	deadline := time.After(deliveryTimeout)
	for {
		select {
		case _, ok := <-sub.Messages():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription stream was not closed")
		}
	}
}
