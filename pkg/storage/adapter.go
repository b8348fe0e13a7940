package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cartsync/pkg/logger"
)

// Adapter is one execution context's view of a Backend. It serializes values
// as JSON and stamps every mutation with the context's origin id.
//
// Reads fail soft: a missing key, malformed stored text or a backend read
// error all read as "absent".
type Adapter struct {
	backend Backend
	origin  string
	logger  *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithOrigin sets the origin id. A random UUID is used by default.
func WithOrigin(origin string) AdapterOption {
	return func(a *Adapter) {
		if origin != "" {
			a.origin = origin
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter binds a new execution context to backend.
func NewAdapter(backend Backend, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		backend: backend,
		origin:  uuid.NewString(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Origin returns the id that tags this adapter's writes.
func (a *Adapter) Origin() string {
	return a.origin
}

// Backend returns the underlying backend.
func (a *Adapter) Backend() Backend {
	return a.backend
}

// Read decodes the value stored under key into a fresh T.
// It returns false when the key is absent, holds JSON null, or holds text that
// does not decode into T.
func Read[T any](ctx context.Context, a *Adapter, key string) (T, bool) {
	var zero T

	raw, err := a.backend.Get(ctx, key)
	if err != nil {
		a.logger.WarnContext(ctx, "store read failed, treating key as absent",
			logger.Component("storage"),
			logger.Key(key),
			logger.Error(err),
		)
		return zero, false
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		a.logger.WarnContext(ctx, "malformed stored value, treating key as absent",
			logger.Component("storage"),
			logger.Key(key),
			logger.Error(err),
		)
		return zero, false
	}
	return v, true
}

// Write serializes v and stores it under key.
func (a *Adapter) Write(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	return a.backend.Set(ctx, a.origin, key, raw)
}

// Remove deletes key.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	return a.backend.Delete(ctx, a.origin, key)
}

// Clear wipes the whole store on behalf of this origin.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.backend.Clear(ctx, a.origin)
}

// Watch streams changes made by other origins.
func (a *Adapter) Watch(ctx context.Context) (<-chan Change, error) {
	return a.backend.Watch(ctx, a.origin)
}
