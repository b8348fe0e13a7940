package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cartsync/pkg/storage"
)

func nextChange(t *testing.T, ch <-chan storage.Change) storage.Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "change feed closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	return storage.Change{}
}

func noChange(t *testing.T, ch <-chan storage.Change) {
	t.Helper()
	select {
	case c, ok := <-ch:
		if ok {
			t.Fatalf("unexpected change: %+v", c)
		}
	case <-time.After(30 * time.Millisecond):
	}
}

func TestMemoryBackend_CRUD(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	defer b.Close()

	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, b.Set(ctx, "tab", "k", []byte(`"v"`)))
	v, err = b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), v)

	v[0] = 'x'
	again, _ := b.Get(ctx, "k")
	assert.Equal(t, []byte(`"v"`), again, "Get must return a copy")

	require.NoError(t, b.Delete(ctx, "tab", "k"))
	require.NoError(t, b.Delete(ctx, "tab", "k"))
	v, err = b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.ErrorIs(t, b.Set(ctx, "tab", "", nil), storage.ErrEmptyKey)
	_, err = b.Get(ctx, "")
	assert.ErrorIs(t, err, storage.ErrEmptyKey)
}

func TestMemoryBackend_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := storage.NewMemoryBackend()
	defer b.Close()

	feedA, err := b.Watch(ctx, "a")
	require.NoError(t, err)
	feedB, err := b.Watch(ctx, "b")
	require.NoError(t, err)

	t.Run("other origins are notified, writer is not", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "a", "cart_items", []byte(`[]`)))

		c := nextChange(t, feedB)
		assert.Equal(t, "cart_items", c.Key)
		assert.Equal(t, "a", c.Origin)
		assert.False(t, c.Removed)
		assert.False(t, c.At.IsZero())
		noChange(t, feedA)
	})

	t.Run("value is visible when change arrives", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "b", "isLoggedIn", []byte(`true`)))

		c := nextChange(t, feedA)
		v, err := b.Get(ctx, c.Key)
		require.NoError(t, err)
		assert.Equal(t, []byte(`true`), v)
	})

	t.Run("unchanged value produces no change", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "b", "isLoggedIn", []byte(`true`)))
		noChange(t, feedA)
	})

	t.Run("delete and clear", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, "a", "isLoggedIn"))
		c := nextChange(t, feedB)
		assert.True(t, c.Removed)
		assert.Equal(t, "isLoggedIn", c.Key)

		require.NoError(t, b.Delete(ctx, "a", "missing"))
		noChange(t, feedB)

		require.NoError(t, b.Clear(ctx, "a"))
		c = nextChange(t, feedB)
		assert.True(t, c.Cleared())
		assert.Empty(t, b.Snapshot())

		require.NoError(t, b.Clear(ctx, "a"))
		noChange(t, feedB)
	})

	t.Run("cancelled watch closes feed", func(t *testing.T) {
		wctx, wcancel := context.WithCancel(ctx)
		feed, err := b.Watch(wctx, "c")
		require.NoError(t, err)
		wcancel()

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-feed:
				return !ok
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)
	})
}

func TestMemoryBackend_Close(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()

	feed, err := b.Watch(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-feed
	assert.False(t, ok)

	assert.ErrorIs(t, b.Set(ctx, "a", "k", []byte(`1`)), storage.ErrClosed)
	_, err = b.Watch(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrClosed)
}
