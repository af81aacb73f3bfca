package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/marquee/pkg/ports"
)

// DefaultBuffer is the per-subscriber queue size.
const DefaultBuffer = 64

// Hub implements ports.Transport in process.
// Every subscriber of a topic receives every payload published to it, including its own.
// Slow subscribers lose messages instead of blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscription]struct{}
	buffer int
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber queue size.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		topics: make(map[string]map[*subscription]struct{}),
		buffer: DefaultBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish delivers payload to every current subscriber of topic.
func (h *Hub) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- slices.Clone(payload):
		default:
			// Buffer full, drop message
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The subscription ends on Close or when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, topic string) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscription{hub: h, topic: topic, ch: make(chan []byte, h.buffer), closed: make(chan struct{})}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscription]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.closed:
		}
	}()
	return sub, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

type subscription struct {
	hub    *Hub
	topic  string
	ch     chan []byte
	once   sync.Once
	closed chan struct{}
}

func (s *subscription) Messages() <-chan []byte {
	return s.ch
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.topics[s.topic], s)
		if len(s.hub.topics[s.topic]) == 0 {
			delete(s.hub.topics, s.topic)
		}
		close(s.ch)
		s.hub.mu.Unlock()
		close(s.closed)
	})
	return nil
}
