// Package channel pairs presentation windows over a broadcast transport.
//
// A Peer publishes domain.ChannelMessage values on a named topic and receives the
// messages of every other peer on the same topic. A peer never hears itself.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
	"github.com/google/uuid"
)

// DefaultTopic is the well-known channel name shared by paired windows.
const DefaultTopic = "marquee:presentation"

// ErrClosed is returned when using a closed peer.
var ErrClosed = errors.New("channel peer closed")

// envelope wraps a message with the identity of its sender.
type envelope struct {
	Sender  string          `json:"sender"`
	Message json.RawMessage `json:"message"`
}

// Peer is one window's end of the presentation channel.
type Peer struct {
	id        string
	topic     string
	transport ports.Transport
	logger    *slog.Logger
	onMessage func(direction string, msg domain.ChannelMessage)

	mu     sync.Mutex
	subs   []ports.Subscription
	closed bool
	done   chan struct{}
}

// Option configures a Peer.
type Option func(*Peer)

// WithTopic overrides DefaultTopic.
func WithTopic(topic string) Option {
	return func(p *Peer) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Peer) {
		p.logger = l
	}
}

// WithID forces the peer identity. Defaults to a random UUID.
func WithID(id string) Option {
	return func(p *Peer) {
		if id != "" {
			p.id = id
		}
	}
}

// WithObserver registers a callback for every message sent ("out") or delivered ("in").
func WithObserver(f func(direction string, msg domain.ChannelMessage)) Option {
	return func(p *Peer) {
		p.onMessage = f
	}
}

// NewPeer creates a peer on transport.
func NewPeer(transport ports.Transport, opts ...Option) *Peer {
	p := &Peer{
		id:        uuid.NewString(),
		topic:     DefaultTopic,
		transport: transport,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("peer", p.id, "topic", p.topic)
	return p
}

// ID returns the peer identity.
func (p *Peer) ID() string {
	return p.id
}

// Topic returns the channel name.
func (p *Peer) Topic() string {
	return p.topic
}

// Send publishes msg to the other peers. Delivery is not acknowledged.
func (p *Peer) Send(ctx context.Context, msg domain.ChannelMessage) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	payload, err := json.Marshal(envelope{Sender: p.id, Message: body})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := p.transport.Publish(ctx, p.topic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", msg, err)
	}

	p.logger.Debug("channel message sent", "message", msg.String())
	if p.onMessage != nil {
		p.onMessage("out", msg)
	}
	return nil
}

// Subscribe returns the messages of the other peers in send order.
// The stream ends when ctx is done or the peer is closed.
func (p *Peer) Subscribe(ctx context.Context) (<-chan domain.ChannelMessage, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	sub, err := p.transport.Subscribe(ctx, p.topic)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: %w", p.topic, err)
	}
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	out := make(chan domain.ChannelMessage)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.done:
				return
			case payload, ok := <-sub.Messages():
				if !ok {
					return
				}
				msg, ok := p.decode(payload)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				case <-p.done:
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases every subscription. No message is delivered afterwards.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		errs = append(errs, sub.Close())
	}
	return errors.Join(errs...)
}

func (p *Peer) decode(payload []byte) (domain.ChannelMessage, bool) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Sender == "" {
		p.logger.Debug("dropping undecodable payload", "err", err, "bytes", len(payload))
		return domain.ChannelMessage{}, false
	}
	if env.Sender == p.id {
		return domain.ChannelMessage{}, false
	}

	var msg domain.ChannelMessage
	if err := json.Unmarshal(env.Message, &msg); err != nil {
		p.logger.Debug("ignoring unknown channel message", "sender", env.Sender, "err", err)
		return domain.ChannelMessage{}, false
	}

	if p.onMessage != nil {
		p.onMessage("in", msg)
	}
	return msg, true
}
