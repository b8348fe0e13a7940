package events

import (
	"context"
	"time"
)

// Topic names a change notification.
type Topic string

const (
	// TopicCartChanged fires after the cart ledger has been persisted.
	TopicCartChanged Topic = "cart-changed"
	// TopicSessionChanged fires after the session flag or profile changed.
	TopicSessionChanged Topic = "session-changed"
	// TopicStorageChanged fires for any durable store change made by another context.
	TopicStorageChanged Topic = "storage-changed"
)

func (t Topic) String() string { return string(t) }

// Event is a payload-free change signal. Subscribers re-read the store on
// receipt instead of trusting any carried state.
type Event struct {
	Topic Topic
	// Origin is the execution context that made the change.
	Origin string
	// Key is the store key that changed. Empty when the whole store was cleared
	// or when the publisher did not track a key.
	Key string
	// Remote is true for events that arrived from another execution context.
	Remote bool
	At     time.Time
}

// Handler reacts to an event. Handlers run to completion before the next
// handler of the same bus is invoked.
type Handler func(ctx context.Context, e Event)

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Subscriber registers handlers by topic. The returned function removes the
// registration and is safe to call more than once.
type Subscriber interface {
	Subscribe(topic Topic, h Handler) (unsubscribe func())
}

// Bus is both a Publisher and a Subscriber.
type Bus interface {
	Publisher
	Subscriber
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher discards every event.
var NopPublisher Publisher = nopPublisher{}
