package ports

import "context"

// Transport is a fire-and-forget broadcast medium identified by topic names.
// Delivery among open subscribers is in send order; messages may be dropped when
// a subscriber is closed or too slow. Nothing is acknowledged or retried.
type Transport interface {
	// Publish sends payload to every current subscriber of topic, including
	// subscriptions owned by the publisher. Filtering own messages is up to the caller.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe starts receiving payloads published on topic after it returns.
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription is an active listener on a topic.
type Subscription interface {
	// Messages yields payloads in send order. It is closed after Close or when the
	// subscribe context ends.
	Messages() <-chan []byte

	// Close releases the subscription. It is safe to call more than once.
	Close() error
}
