package events

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/cartsync/pkg/logger"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

// Watcher is the change feed a StorageBus consumes. *storage.Adapter
// satisfies it.
type Watcher interface {
	Watch(ctx context.Context) (<-chan storage.Change, error)
}

// StorageBus turns durable store changes made by other execution contexts
// into events. Every change emits TopicStorageChanged; keys registered with
// WithRoute additionally emit their topic. A cleared store emits every routed
// topic once.
//
// Handlers run on the bus goroutine, one event at a time.
type StorageBus struct {
	watcher Watcher
	local   *LocalBus
	routes  map[string]Topic
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// StorageOption configures a StorageBus.
type StorageOption func(*StorageBus)

// WithRoute maps a store key to the topic emitted when that key changes.
func WithRoute(key string, topic Topic) StorageOption {
	return func(b *StorageBus) {
		b.routes[key] = topic
	}
}

// WithStorageLogger sets the bus logger.
func WithStorageLogger(l *slog.Logger) StorageOption {
	return func(b *StorageBus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewStorageBus creates a bus over w. Call Start to begin consuming changes.
func NewStorageBus(w Watcher, opts ...StorageOption) *StorageBus {
	b := &StorageBus{
		watcher: w,
		routes:  make(map[string]Topic),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.local = NewLocalBus(WithLogger(b.logger))
	return b
}

// Subscribe registers h for topic.
func (b *StorageBus) Subscribe(topic Topic, h Handler) func() {
	return b.local.Subscribe(topic, h)
}

// Start subscribes to the change feed and dispatches changes until ctx is
// cancelled or Close is called.
func (b *StorageBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	changes, err := b.watcher.Watch(ctx)
	if err != nil {
		cancel()
		return errors.Join(ErrWatchFailed, err)
	}

	b.started = true
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.run(ctx, changes)
	return nil
}

// Close stops the bus and waits for the in-flight event to finish.
func (b *StorageBus) Close() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (b *StorageBus) run(ctx context.Context, changes <-chan storage.Change) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			b.dispatch(ctx, c)
		}
	}
}

func (b *StorageBus) dispatch(ctx context.Context, c storage.Change) {
	b.logger.DebugContext(ctx, "store changed in another context",
		logger.Component("events"),
		logger.Key(c.Key),
		logger.Origin(c.Origin),
	)

	for _, topic := range b.topicsFor(c) {
		b.local.Publish(ctx, Event{
			Topic:  topic,
			Origin: c.Origin,
			Key:    c.Key,
			Remote: true,
			At:     c.At,
		})
	}
}

// topicsFor returns the routed topics for c followed by TopicStorageChanged.
func (b *StorageBus) topicsFor(c storage.Change) []Topic {
	var topics []Topic
	if c.Cleared() {
		seen := make(map[Topic]struct{}, len(b.routes))
		for _, t := range b.routes {
			if _, ok := seen[t]; ok || t == TopicStorageChanged {
				continue
			}
			seen[t] = struct{}{}
			topics = append(topics, t)
		}
		slices.Sort(topics)
	} else if t, ok := b.routes[c.Key]; ok && t != TopicStorageChanged {
		topics = append(topics, t)
	}
	return append(topics, TopicStorageChanged)
}
