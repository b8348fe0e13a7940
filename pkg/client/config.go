package client

import "github.com/dmitrymomot/cartsync/pkg/notifications"

// Config holds per-tab settings.
type Config struct {
	// CartToasts shows a notification when a product is added or removed.
	CartToasts bool `env:"CARTSYNC_CART_TOASTS" envDefault:"true"`

	Notifications notifications.Config
}

// DefaultConfig returns the default tab configuration.
func DefaultConfig() Config {
	return Config{
		CartToasts:    true,
		Notifications: notifications.DefaultConfig(),
	}
}
