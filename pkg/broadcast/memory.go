package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-process Broadcaster. A full subscriber buffer
// drops the message for that subscriber only; the subscription stays open.
// All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	onDrop      func(Message[T])
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// Option configures a MemoryBroadcaster.
type Option[T any] func(*MemoryBroadcaster[T])

// WithDropHandler registers a callback invoked for every message dropped
// because a subscriber buffer was full.
func WithDropHandler[T any](fn func(Message[T])) Option[T] {
	return func(b *MemoryBroadcaster[T]) {
		b.onDrop = fn
	}
}

// NewMemoryBroadcaster creates a new in-memory broadcaster.
// bufferSize is the per-subscriber channel buffer (minimum 1).
func NewMemoryBroadcaster[T any](bufferSize int, opts ...Option[T]) *MemoryBroadcaster[T] {
	b := &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe creates a new subscriber. If the broadcaster is already closed,
// it returns a closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context, opts ...SubscribeOption) Subscriber[T] {
	var cfg subscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize, cfg)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.done:
			}
		}()
	}

	return &handle[T]{subscriber: sub, owner: b}
}

// Broadcast delivers msg to every open subscriber that accepts its origin.
// It never blocks and always returns nil.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for sub := range b.subscribers {
		if !sub.wants(msg) {
			continue
		}
		open, delivered := sub.send(msg)
		if !open {
			go b.unsubscribe(sub)
			continue
		}
		if !delivered && b.onDrop != nil {
			b.onDrop(msg)
		}
	}

	return nil
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscribers. Idempotent.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)

	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}

// handle removes the subscriber from its broadcaster on Close, so closed
// subscribers do not linger in the fan-out set until the next broadcast.
type handle[T any] struct {
	*subscriber[T]
	owner *MemoryBroadcaster[T]
}

func (h *handle[T]) Close() error {
	h.owner.unsubscribe(h.subscriber)
	return nil
}
