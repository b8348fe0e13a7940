package cart

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/cartsync/pkg/events"
	"github.com/dmitrymomot/cartsync/pkg/notifications"
)

// Notifier surfaces a toast. *notifications.Queue satisfies it.
type Notifier interface {
	Show(ctx context.Context, t notifications.Type, message string) notifications.Notification
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets where cart-changed events go after each persisted mutation.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.bus = p
		}
	}
}

// WithNotifier enables toasts for added and removed products.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		l.notifier = n
	}
}

// WithLogger sets the ledger logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.logger = log
		}
	}
}
