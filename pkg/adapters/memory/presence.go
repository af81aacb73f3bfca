package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/marquee/pkg/domain"
)

// Presence implements ports.PresenceStore in memory.
// Safe for concurrent use.
type Presence struct {
	data map[string]domain.Presence
	mu   sync.RWMutex
}

// NewPresence creates an empty presence store.
func NewPresence() *Presence {
	return &Presence{
		data: make(map[string]domain.Presence),
	}
}

// Announce stores p under its topic.
func (s *Presence) Announce(ctx context.Context, p domain.Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[p.Topic] = p
	return nil
}

// Lookup returns the presence of topic.
func (s *Presence) Lookup(ctx context.Context, topic string) (domain.Presence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[topic]
	if !ok {
		return domain.Presence{}, domain.ErrPresenceNotFound
	}
	return p, nil
}

// Withdraw removes the presence of topic.
func (s *Presence) Withdraw(ctx context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, topic)
	return nil
}

// List returns every announced topic, sorted.
func (s *Presence) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topics := make([]string, 0, len(s.data))
	for k := range s.data {
		topics = append(topics, k)
	}
	slices.Sort(topics)
	return topics, nil
}
