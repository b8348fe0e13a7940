package storage

import (
	"bytes"
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/dmitrymomot/cartsync/pkg/broadcast"
	"github.com/dmitrymomot/cartsync/pkg/logger"
)

// DefaultFeedBuffer is the per-watcher change buffer of MemoryBackend.
const DefaultFeedBuffer = 256

// MemoryBackend is an in-process Backend. All tabs opened on the same
// MemoryBackend share one origin store, like browser tabs share localStorage.
//
// Writes that do not change the stored value produce no Change.
type MemoryBackend struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
	feed   *broadcast.MemoryBroadcaster[Change]
	logger *slog.Logger
	buffer int
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithMemoryLogger sets the logger used to report dropped change notifications.
func WithMemoryLogger(l *slog.Logger) MemoryOption {
	return func(m *MemoryBackend) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithFeedBuffer sets the per-watcher change buffer size.
func WithFeedBuffer(size int) MemoryOption {
	return func(m *MemoryBackend) {
		if size > 0 {
			m.buffer = size
		}
	}
}

// NewMemoryBackend creates an empty in-memory origin store.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		data:   make(map[string][]byte),
		logger: slog.Default(),
		buffer: DefaultFeedBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.feed = broadcast.NewMemoryBroadcaster(m.buffer, broadcast.WithDropHandler(func(msg broadcast.Message[Change]) {
		m.logger.Warn("storage change notification dropped",
			logger.Component("storage.memory"),
			logger.Key(msg.Data.Key),
			logger.Origin(msg.Origin),
		)
	}))

	return m
}

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (m *MemoryBackend) Set(ctx context.Context, origin, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	old, existed := m.data[key]
	if existed && bytes.Equal(old, value) {
		m.mu.Unlock()
		return nil
	}
	m.data[key] = bytes.Clone(value)
	m.mu.Unlock()

	m.notify(ctx, Change{Key: key, Origin: origin, At: time.Now()})
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, origin, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if existed {
		m.notify(ctx, Change{Key: key, Origin: origin, Removed: true, At: time.Now()})
	}
	return nil
}

func (m *MemoryBackend) Clear(ctx context.Context, origin string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	hadData := len(m.data) > 0
	clear(m.data)
	m.mu.Unlock()

	if hadData {
		m.notify(ctx, Change{Origin: origin, Removed: true, At: time.Now()})
	}
	return nil
}

func (m *MemoryBackend) Watch(ctx context.Context, origin string) (<-chan Change, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	sub := m.feed.Subscribe(ctx, broadcast.ExcludeOrigin(origin))
	out := make(chan Change)

	go func() {
		defer close(out)
		defer sub.Close()
		for msg := range sub.Receive(ctx) {
			select {
			case out <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Snapshot returns a copy of every stored key and value.
func (m *MemoryBackend) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.data))
	maps.Copy(out, m.data)
	for k, v := range out {
		out[k] = bytes.Clone(v)
	}
	return out
}

// Close stops all watchers. Further calls return ErrClosed.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	return m.feed.Close()
}

func (m *MemoryBackend) notify(ctx context.Context, c Change) {
	_ = m.feed.Broadcast(ctx, broadcast.Message[Change]{Origin: c.Origin, Data: c})
}
