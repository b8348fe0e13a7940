package notifications

import (
	"log/slog"
	"time"
)

// Option configures a Queue.
type Option func(*Queue)

// WithConfig replaces the queue configuration.
func WithConfig(cfg Config) Option {
	return func(q *Queue) {
		q.config = cfg
	}
}

// WithDismissAfter sets the auto-dismiss delay.
func WithDismissAfter(d time.Duration) Option {
	return func(q *Queue) {
		q.config.DismissAfter = d
	}
}

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithIDGenerator replaces the notification id generator.
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) {
		if fn != nil {
			q.newID = fn
		}
	}
}
