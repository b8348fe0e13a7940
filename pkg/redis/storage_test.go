package redis_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cartsync/pkg/redis"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

func testConfig(t *testing.T) redis.Config {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	return redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		RetryInterval:  100 * time.Millisecond,
		ConnectTimeout: 5 * time.Second,
		Namespace:      "cartsync-test-" + uuid.NewString(),
	}
}

func setupStorage(t *testing.T) *redis.Storage {
	t.Helper()
	cfg := testConfig(t)
	client, err := redis.Connect(context.Background(), cfg)
	require.NoError(t, err)

	s := redis.NewStorage(client, cfg)
	t.Cleanup(func() {
		_ = s.Clear(context.Background(), "cleanup")
		_ = s.Close()
	})
	return s
}

func TestStorage_CRUD(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	v, err := s.Get(ctx, "cart_items")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "a", "cart_items", []byte(`[]`)))
	v, err = s.Get(ctx, "cart_items")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)

	require.NoError(t, s.Delete(ctx, "a", "cart_items"))
	v, err = s.Get(ctx, "cart_items")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, redis.Healthcheck(s.Conn())(ctx))
}

func TestStorage_Watch(t *testing.T) {
	s := setupStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := s.Watch(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "b", "own", []byte(`1`)))
	require.NoError(t, s.Set(ctx, "a", "isLoggedIn", []byte(`true`)))
	require.NoError(t, s.Set(ctx, "a", "isLoggedIn", []byte(`true`)))
	require.NoError(t, s.Clear(ctx, "a"))

	expect := []storage.Change{
		{Key: "isLoggedIn", Origin: "a"},
		{Origin: "a", Removed: true},
	}
	for _, want := range expect {
		select {
		case got := <-feed:
			assert.Equal(t, want.Key, got.Key)
			assert.Equal(t, want.Origin, got.Origin)
			assert.Equal(t, want.Removed, got.Removed)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %+v", want)
		}
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "://bad",
		ConnectTimeout: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

// rejectPublish fails every PUBLISH command and passes everything else through.
type rejectPublish struct{}

func (rejectPublish) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (rejectPublish) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if cmd.Name() == "publish" {
			err := errors.New("publish rejected")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (rejectPublish) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func TestStorage_PublishFailureKeepsWrite(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	client, err := redis.Connect(ctx, cfg)
	require.NoError(t, err)
	client.AddHook(rejectPublish{})

	var logs bytes.Buffer
	s := redis.NewStorage(client, cfg, redis.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	t.Cleanup(func() {
		_ = s.Clear(context.Background(), "cleanup")
		_ = s.Close()
	})

	require.NoError(t, s.Set(ctx, "a", "cart_items", []byte(`[]`)), "persisted write must not fail")
	v, err := s.Get(ctx, "cart_items")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)

	require.NoError(t, s.Delete(ctx, "a", "cart_items"))
	v, err = s.Get(ctx, "cart_items")
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Contains(t, logs.String(), "change notification not published")
	assert.Contains(t, logs.String(), redis.ErrPublishFailed.Error())
}
