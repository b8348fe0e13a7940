package events

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/cartsync/pkg/logger"
)

// LocalBus delivers events to subscribers of the same execution context.
// Publish invokes handlers synchronously in the caller's goroutine, in
// subscription order. A panicking handler is recovered and logged; the
// remaining handlers still run.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[Topic][]registration
	nextID   uint64
	logger   *slog.Logger
	now      func() time.Time
}

type registration struct {
	id uint64
	h  Handler
}

// LocalOption configures a LocalBus.
type LocalOption func(*LocalBus)

// WithLogger sets the logger used for recovered handler panics.
func WithLogger(l *slog.Logger) LocalOption {
	return func(b *LocalBus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewLocalBus creates an empty bus.
func NewLocalBus(opts ...LocalOption) *LocalBus {
	b := &LocalBus{
		handlers: make(map[Topic][]registration),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic.
func (b *LocalBus) Subscribe(topic Topic, h Handler) func() {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], registration{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.handlers[topic] = slices.DeleteFunc(slices.Clone(b.handlers[topic]), func(r registration) bool {
				return r.id == id
			})
			if len(b.handlers[topic]) == 0 {
				delete(b.handlers, topic)
			}
		})
	}
}

// Publish delivers e to every handler of e.Topic. A zero At is stamped with
// the current time. Handlers may subscribe, unsubscribe or publish while
// being invoked; changes apply to the next Publish.
func (b *LocalBus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.RLock()
	regs := b.handlers[e.Topic]
	b.mu.RUnlock()

	for _, r := range regs {
		b.invoke(ctx, r.h, e)
	}
}

// Len returns the number of handlers registered for topic.
func (b *LocalBus) Len(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

func (b *LocalBus) invoke(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				logger.Component("events"),
				logger.Topic(e.Topic.String()),
				logger.Error(fmt.Errorf("%w: %v", ErrHandlerPanic, r)),
			)
		}
	}()
	h(ctx, e)
}
