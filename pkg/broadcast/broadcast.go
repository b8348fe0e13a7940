package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T together with the origin that produced it.
type Message[T any] struct {
	// Origin identifies the execution context that broadcast the message.
	// Empty for messages that have no particular source.
	Origin string
	Data   T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns a channel for receiving broadcast messages.
	// The channel is closed when the subscriber is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close closes the subscriber and releases resources. Idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers without blocking the sender.
type Broadcaster[T any] interface {
	// Subscribe creates a new subscriber. Cancelling ctx unsubscribes it.
	Subscribe(ctx context.Context, opts ...SubscribeOption) Subscriber[T]

	// Broadcast sends a message to all matching subscribers.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	excludeOrigin string
}

// ExcludeOrigin skips messages whose Origin equals origin. This mirrors how a
// browser storage event is never delivered to the tab that made the change.
func ExcludeOrigin(origin string) SubscribeOption {
	return func(c *subscribeConfig) {
		c.excludeOrigin = origin
	}
}

type subscriber[T any] struct {
	ch     chan Message[T]
	cfg    subscribeConfig
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int, cfg subscribeConfig) *subscriber[T] {
	return &subscriber[T]{
		ch:  make(chan Message[T], bufferSize),
		cfg: cfg,
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

func (s *subscriber[T]) wants(msg Message[T]) bool {
	return s.cfg.excludeOrigin == "" || s.cfg.excludeOrigin != msg.Origin
}

// send reports whether the subscriber is still open; delivered is false when
// the message was dropped because the buffer was full.
func (s *subscriber[T]) send(msg Message[T]) (open, delivered bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, false
	}

	select {
	case s.ch <- msg:
		return true, true
	default:
		return true, false
	}
}
