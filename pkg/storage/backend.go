package storage

import (
	"context"
	"time"
)

// Change describes a mutation of the durable store made by some origin.
type Change struct {
	// Key is the mutated key. Empty means the whole store was cleared.
	Key string `json:"key,omitempty"`
	// Origin is the identifier of the execution context that made the change.
	Origin string `json:"origin"`
	// Removed is true when Key was deleted.
	Removed bool `json:"removed,omitempty"`
	// At is the time the change was applied.
	At time.Time `json:"at"`
}

// Cleared reports whether the change wiped the whole store.
func (c Change) Cleared() bool {
	return c.Key == ""
}

// Backend is an origin-scoped key-value store shared by several execution
// contexts. Every mutating call is tagged with the origin that performs it.
//
// Implementations must apply each call atomically at the key level and
// publish the resulting Change only after the value is visible to Get.
type Backend interface {
	// Get returns the raw value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key.
	Set(ctx context.Context, origin, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, origin, key string) error

	// Clear removes every key.
	Clear(ctx context.Context, origin string) error

	// Watch streams changes made by origins other than origin until ctx is
	// cancelled, after which the channel is closed.
	Watch(ctx context.Context, origin string) (<-chan Change, error)

	// Close releases backend resources.
	Close() error
}
