package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/cartsync/pkg/logger"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

// Storage is a storage.Backend on Redis. Values live under
// "<namespace>:kv:<key>"; every mutation is announced on the
// "<namespace>:changes" pub/sub channel so tabs in other processes can resync.
type Storage struct {
	db            redis.UniversalClient
	namespace     string
	scanBatchSize int64
	logger        *slog.Logger
}

var _ storage.Backend = (*Storage)(nil)

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithLogger sets the logger used to report undecodable change messages.
func WithLogger(l *slog.Logger) StorageOption {
	return func(s *Storage) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStorage wraps client using cfg.Namespace and cfg.ScanBatchSize.
func NewStorage(client redis.UniversalClient, cfg Config, opts ...StorageOption) *Storage {
	s := &Storage{
		db:            client,
		namespace:     cfg.Namespace,
		scanBatchSize: int64(cfg.ScanBatchSize),
		logger:        slog.Default(),
	}
	if s.namespace == "" {
		s.namespace = "cartsync"
	}
	if s.scanBatchSize <= 0 {
		s.scanBatchSize = 500
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) key(k string) string {
	return s.namespace + ":kv:" + k
}

func (s *Storage) channel() string {
	return s.namespace + ":changes"
}

// Get returns nil for missing keys (redis.Nil becomes nil, nil).
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}
	val, err := s.db.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set writes value with SET ... GET so an unchanged value is detected
// atomically and produces no change notification.
func (s *Storage) Set(ctx context.Context, origin, key string, value []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	old, err := s.db.SetArgs(ctx, s.key(key), value, redis.SetArgs{Get: true}).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return err
	case old == string(value):
		return nil
	}
	s.announce(ctx, storage.Change{Key: key, Origin: origin, At: time.Now()})
	return nil
}

func (s *Storage) Delete(ctx context.Context, origin, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	n, err := s.db.Del(ctx, s.key(key)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	s.announce(ctx, storage.Change{Key: key, Origin: origin, Removed: true, At: time.Now()})
	return nil
}

// Clear removes every key of the namespace using SCAN, never FLUSHDB.
func (s *Storage) Clear(ctx context.Context, origin string) error {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := s.db.Scan(ctx, cursor, s.namespace+":kv:*", s.scanBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			n, err := s.db.Del(ctx, keys...).Result()
			if err != nil {
				return err
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if deleted == 0 {
		return nil
	}
	s.announce(ctx, storage.Change{Origin: origin, Removed: true, At: time.Now()})
	return nil
}

// Watch subscribes to the namespace change channel. The subscription is
// confirmed before Watch returns, so changes published afterwards are seen.
func (s *Storage) Watch(ctx context.Context, origin string) (<-chan storage.Change, error) {
	pubsub := s.db.Subscribe(ctx, s.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	out := make(chan storage.Change)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var c storage.Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					s.logger.WarnContext(ctx, "undecodable change notification",
						logger.Component("storage.redis"),
						logger.Error(err),
					)
					continue
				}
				if c.Origin == origin {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close terminates the Redis connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Conn returns the underlying Redis client.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

// announce publishes c on the change channel. The value is already persisted
// at this point, so a failed publish is logged rather than returned: other
// tabs miss this notification but read the new value on their next recompute.
func (s *Storage) announce(ctx context.Context, c storage.Change) {
	if err := s.publish(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "change notification not published",
			logger.Component("storage.redis"),
			logger.Key(c.Key),
			logger.Origin(c.Origin),
			logger.Error(errors.Join(ErrPublishFailed, err)),
		)
	}
}

func (s *Storage) publish(ctx context.Context, c storage.Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.db.Publish(ctx, s.channel(), payload).Err()
}
