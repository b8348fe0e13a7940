package client

import "log/slog"

// Option configures a Tab.
type Option func(*options)

type options struct {
	config Config
	origin string
	logger *slog.Logger
}

// WithConfig replaces the tab configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithOrigin fixes the origin id instead of generating one.
func WithOrigin(origin string) Option {
	return func(o *options) {
		o.origin = origin
	}
}

// WithLogger sets the logger shared by every component of the tab.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
