package notifications

import "time"

// DefaultDismissAfter is how long a notification stays visible.
const DefaultDismissAfter = 3000 * time.Millisecond

// Config holds queue settings.
type Config struct {
	// DismissAfter is the auto-dismiss delay. Zero or less keeps notifications
	// until they are dismissed or replaced.
	DismissAfter time.Duration `env:"NOTIFY_DISMISS_AFTER" envDefault:"3s"`

	// SubscriberBuffer is the per-subscriber update buffer.
	SubscriberBuffer int `env:"NOTIFY_SUBSCRIBER_BUFFER" envDefault:"16"`
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		DismissAfter:     DefaultDismissAfter,
		SubscriberBuffer: 16,
	}
}

// NewFromConfig creates a queue from cfg. Options override cfg.
func NewFromConfig(cfg Config, opts ...Option) *Queue {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
