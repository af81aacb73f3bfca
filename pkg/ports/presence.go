package ports

import (
	"context"

	"github.com/aretw0/marquee/pkg/domain"
)

// PresenceStore tracks which presentations are live and where they are.
type PresenceStore interface {
	// Announce creates or refreshes the presence of p.Topic.
	Announce(ctx context.Context, p domain.Presence) error

	// Lookup returns the presence of topic or domain.ErrPresenceNotFound.
	Lookup(ctx context.Context, topic string) (domain.Presence, error)

	// Withdraw removes the presence of topic.
	Withdraw(ctx context.Context, topic string) error

	// List returns the topics of every live presentation.
	List(ctx context.Context) ([]string, error)
}
