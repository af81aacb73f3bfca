package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/marquee/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix namespaces presentation topics in Redis pub/sub.
const DefaultChannelPrefix = "marquee:channel:"

// Transport implements ports.Transport over Redis pub/sub, so presenter
// and audience can run in different processes or hosts.
type Transport struct {
	client *backend.Client
	prefix string
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithChannelPrefix sets the pub/sub channel prefix.
func WithChannelPrefix(prefix string) TransportOption {
	return func(t *Transport) {
		t.prefix = prefix
	}
}

// NewTransport dials Redis and returns a transport over it.
func NewTransport(address, password string, db int, opts ...TransportOption) *Transport {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewTransportFromClient(rdb, opts...)
}

// NewTransportFromClient creates a transport from an existing client.
func NewTransportFromClient(client *backend.Client, opts ...TransportOption) *Transport {
	t := &Transport{
		client: client,
		prefix: DefaultChannelPrefix,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) channel(topic string) string {
	return t.prefix + topic
}

// Publish sends payload to every subscriber of topic.
func (t *Transport) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := t.client.Publish(ctx, t.channel(topic), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed by the server,
// so messages published afterwards are not lost.
func (t *Transport) Subscribe(ctx context.Context, topic string) (ports.Subscription, error) {
	pubsub := t.client.Subscribe(ctx, t.channel(topic))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to redis: %w", err)
	}

	sub := &subscription{
		pubsub: pubsub,
		ch:     make(chan []byte, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	go sub.pump(ctx)
	return sub, nil
}

const subscriptionBuffer = 64

type subscription struct {
	pubsub *backend.PubSub
	ch     chan []byte
	done   chan struct{}
	once   sync.Once
	err    error
}

func (s *subscription) Messages() <-chan []byte {
	return s.ch
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.pubsub.Close()
	})
	return s.err
}

func (s *subscription) pump(ctx context.Context) {
	defer close(s.ch)
	src := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case msg, ok := <-src:
			if !ok {
				return
			}
			select {
			case s.ch <- []byte(msg.Payload):
			default:
				// Buffer full, drop message
			}
		}
	}
}

// Close closes the redis client.
func (t *Transport) Close() error {
	return t.client.Close()
}
