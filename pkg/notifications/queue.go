package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cartsync/pkg/broadcast"
	"github.com/dmitrymomot/cartsync/pkg/logger"
)

// Queue is a single-slot notification holder. Showing a notification
// replaces the current one and restarts the dismiss timer; a timer armed for
// a replaced notification never clears its successor.
type Queue struct {
	config Config
	logger *slog.Logger
	newID  func() string
	now    func() time.Time

	mu         sync.Mutex
	current    Notification
	timer      *time.Timer
	generation uint64
	closed     bool

	feed *broadcast.MemoryBroadcaster[Update]
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		config: DefaultConfig(),
		logger: slog.Default(),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.config.SubscriberBuffer <= 0 {
		q.config.SubscriberBuffer = DefaultConfig().SubscriberBuffer
	}

	q.feed = broadcast.NewMemoryBroadcaster[Update](q.config.SubscriberBuffer,
		broadcast.WithDropHandler(func(broadcast.Message[Update]) {
			q.logger.Warn("notification subscriber is full, update dropped",
				logger.Component("notifications"),
			)
		}),
	)
	return q
}

// Show displays a notification of type t, replacing whatever was visible.
// Unknown types are shown as TypeInfo.
func (q *Queue) Show(ctx context.Context, t Type, message string) Notification {
	if !t.Valid() {
		q.logger.WarnContext(ctx, "unknown notification type, using info",
			logger.Component("notifications"),
			slog.String("type", string(t)),
		)
		t = TypeInfo
	}

	now := q.now()
	n := Notification{
		ID:        q.newID(),
		Type:      t,
		Message:   message,
		CreatedAt: now,
	}
	if q.config.DismissAfter > 0 {
		n.ExpiresAt = now.Add(q.config.DismissAfter)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return n
	}

	q.stopTimerLocked()
	q.generation++
	q.current = n

	if q.config.DismissAfter > 0 {
		gen := q.generation
		q.timer = time.AfterFunc(q.config.DismissAfter, func() {
			q.expire(gen)
		})
	}

	q.publishLocked(ctx, Update{Notification: n, Visible: true})
	return n
}

// Success shows a TypeSuccess notification.
func (q *Queue) Success(ctx context.Context, message string) Notification {
	return q.Show(ctx, TypeSuccess, message)
}

// Error shows a TypeError notification.
func (q *Queue) Error(ctx context.Context, message string) Notification {
	return q.Show(ctx, TypeError, message)
}

// Warning shows a TypeWarning notification.
func (q *Queue) Warning(ctx context.Context, message string) Notification {
	return q.Show(ctx, TypeWarning, message)
}

// Info shows a TypeInfo notification.
func (q *Queue) Info(ctx context.Context, message string) Notification {
	return q.Show(ctx, TypeInfo, message)
}

// Current returns the visible notification, if any.
func (q *Queue) Current() (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current, !q.current.IsZero()
}

// Dismiss clears the visible notification immediately.
func (q *Queue) Dismiss() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current.IsZero() {
		return
	}
	q.stopTimerLocked()
	q.generation++
	q.clearLocked(context.Background())
}

// Subscribe streams slot updates until ctx is cancelled or the queue is
// closed. Updates that do not fit the subscriber buffer are dropped;
// renderers should call Current when they need the authoritative value.
func (q *Queue) Subscribe(ctx context.Context) <-chan Update {
	sub := q.feed.Subscribe(ctx)
	out := make(chan Update, q.config.SubscriberBuffer)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Receive(ctx):
				if !ok {
					return
				}
				select {
				case out <- msg.Data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Close stops the pending timer and closes all subscriptions. Show becomes a
// no-op afterwards.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.stopTimerLocked()
	q.generation++
	q.current = Notification{}
	q.mu.Unlock()

	return q.feed.Close()
}

func (q *Queue) expire(gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if gen != q.generation || q.closed {
		return
	}
	q.timer = nil
	q.clearLocked(context.Background())
}

func (q *Queue) clearLocked(ctx context.Context) {
	removed := q.current
	q.current = Notification{}
	q.publishLocked(ctx, Update{Notification: removed, Visible: false})
}

func (q *Queue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Queue) publishLocked(ctx context.Context, u Update) {
	if err := q.feed.Broadcast(ctx, broadcast.Message[Update]{Data: u}); err != nil {
		q.logger.DebugContext(ctx, "notification update not delivered",
			logger.Component("notifications"),
			logger.Error(err),
		)
	}
}
