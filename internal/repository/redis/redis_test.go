package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/service/catalog"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb, mr
}

func TestCache_Venues(t *testing.T) {
	rdb, mr := newClient(t)
	ctx := context.Background()
	c := New(rdb, time.Minute)

	var loads atomic.Int32
	load := func(context.Context) ([]domain.Venue, error) {
		loads.Add(1)
		return []domain.Venue{{ID: 1, Name: "Cafeteria"}}, nil
	}

	first, err := c.Venues(ctx, load)
	require.NoError(t, err)
	second, err := c.Venues(ctx, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, loads.Load())
	assert.True(t, mr.Exists(KeyVenues()))

	require.NoError(t, c.InvalidateVenues(ctx))
	assert.False(t, mr.Exists(KeyVenues()))

	_, err = c.Venues(ctx, load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, loads.Load())
}

func TestCache_LoaderErrorIsNotCached(t *testing.T) {
	rdb, mr := newClient(t)
	c := New(rdb, time.Minute)
	boom := errors.New("db down")

	_, err := c.Venues(context.Background(), func(context.Context) ([]domain.Venue, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(KeyVenues()))
}

func TestCatalogPubSub(t *testing.T) {
	rdb, _ := newClient(t)
	ps := NewCatalogPubSub(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.CatalogChange, 1)
	done := make(chan error, 1)
	go func() {
		done <- ps.Subscribe(ctx, func(_ context.Context, ch domain.CatalogChange) {
			got <- ch
		})
	}()

	want := domain.CatalogChange{Kind: domain.VenueRenamed, VenueID: 3, Name: "B", OldName: "A", TsUnix: 42}
	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, ChannelCatalogChanged()).Result()
		return err == nil && n[ChannelCatalogChanged()] == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, ps.PublishCatalogChanged(ctx, want))

	select {
	case ch := <-got:
		assert.Equal(t, want, ch)
	case <-time.After(time.Second):
		t.Fatal("no catalog change received")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestCatalogLock(t *testing.T) {
	rdb, mr := newClient(t)
	ctx := context.Background()

	l := NewCatalogLock(rdb, time.Minute, 50*time.Millisecond)

	unlock, err := l.Lock(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(KeyCatalogLock()))

	_, err = l.Lock(ctx)
	assert.ErrorIs(t, err, catalog.ErrLockNotAcquired)

	unlock()
	assert.False(t, mr.Exists(KeyCatalogLock()))

	unlock2, err := l.Lock(ctx)
	require.NoError(t, err)
	unlock2()
}

func TestCatalogLock_RenewedWhileHeld(t *testing.T) {
	rdb, mr := newClient(t)
	ctx := context.Background()

	l := NewCatalogLock(rdb, 600*time.Millisecond, 50*time.Millisecond)
	unlock, err := l.Lock(ctx)
	require.NoError(t, err)

	// A full second of Redis time passes in small steps while the holder is busy.
	for i := 0; i < 20; i++ {
		time.Sleep(50 * time.Millisecond)
		mr.FastForward(50 * time.Millisecond)
	}

	assert.True(t, mr.Exists(KeyCatalogLock()))
	_, err = l.Lock(ctx)
	assert.ErrorIs(t, err, catalog.ErrLockNotAcquired)

	unlock()
	assert.False(t, mr.Exists(KeyCatalogLock()))

	// Renewal stops with unlock and never touches the next owner's key.
	require.NoError(t, mr.Set(KeyCatalogLock(), "other-owner"))
	mr.SetTTL(KeyCatalogLock(), time.Second)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, time.Second, mr.TTL(KeyCatalogLock()))

	unlock()
	v, err := mr.Get(KeyCatalogLock())
	require.NoError(t, err)
	assert.Equal(t, "other-owner", v)
}

func TestCatalogLock_ReleaseKeepsForeignLock(t *testing.T) {
	rdb, mr := newClient(t)
	ctx := context.Background()

	l := NewCatalogLock(rdb, time.Second, 50*time.Millisecond)
	unlock, err := l.Lock(ctx)
	require.NoError(t, err)

	// Our lock expired and someone else took it.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(KeyCatalogLock(), "other-owner"))

	unlock()
	v, err := mr.Get(KeyCatalogLock())
	require.NoError(t, err)
	assert.Equal(t, "other-owner", v)
}

func TestSlidingWindowLimiter(t *testing.T) {
	rdb, _ := newClient(t)
	ctx := context.Background()

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(rdb, "login", 2, time.Minute)
	l.now = func() time.Time { return at }

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.EqualValues(t, 3, d.Current)
	assert.Equal(t, time.Minute, d.RetryAfter)

	other, err := l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	at = at.Add(61 * time.Second)
	d, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestIdempotencyStore(t *testing.T) {
	rdb, _ := newClient(t)
	ctx := context.Background()
	s := NewIdempotencyStore(rdb, time.Hour)
	key := KeyIdemTicket(7, "abc")

	ok, err := s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, locked)

	_, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveResult(ctx, key, `{"id":1}`))
	res, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"id":1}`, res)

	require.NoError(t, s.Release(ctx, key))
	locked, err = s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)
}
