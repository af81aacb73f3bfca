package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/marquee/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPresencePrefix namespaces presence records.
const DefaultPresencePrefix = "marquee:presence:"

// noExpiry is the index score of records without a TTL (2100-01-01).
const noExpiry = 4102444800

// Presence implements ports.PresenceStore using Redis.
// Records expire after the TTL unless the presenter keeps announcing.
type Presence struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Presence store.
type Option func(*Presence)

// WithTTL sets the expiration for presence records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Presence) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for presence records.
func WithPrefix(prefix string) Option {
	return func(s *Presence) {
		s.prefix = prefix
	}
}

// New creates a new Redis presence store with options.
func New(address, password string, db int, opts ...Option) *Presence {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis presence store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Presence {
	s := &Presence{
		client: client,
		prefix: DefaultPresencePrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Presence) key(topic string) string {
	return s.prefix + topic
}

func (s *Presence) indexKey() string {
	return s.prefix + "index"
}

// Announce stores p with the configured TTL and indexes its topic.
func (s *Presence) Announce(ctx context.Context, p domain.Presence) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	score := float64(s.now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(p.Topic), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: p.Topic})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Lookup retrieves the presence of topic.
func (s *Presence) Lookup(ctx context.Context, topic string) (domain.Presence, error) {
	val, err := s.client.Get(ctx, s.key(topic)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Presence{}, domain.ErrPresenceNotFound
		}
		return domain.Presence{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var p domain.Presence
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return domain.Presence{}, fmt.Errorf("failed to unmarshal presence: %w", err)
	}
	return p, nil
}

// Withdraw removes the presence of topic.
func (s *Presence) Withdraw(ctx context.Context, topic string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(topic))
	pipe.ZRem(ctx, s.indexKey(), topic)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns live topics, pruning expired index entries first.
func (s *Presence) List(ctx context.Context) ([]string, error) {
	now := float64(s.now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired presences: %w", err)
	}

	topics, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presences: %w", err)
	}
	return topics, nil
}

// Close closes the redis client.
func (s *Presence) Close() error {
	return s.client.Close()
}
