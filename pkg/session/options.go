package session

import (
	"log/slog"

	"github.com/dmitrymomot/cartsync/pkg/events"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithPublisher sets where session-changed events go.
func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.bus = p
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
