package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/canteen-go/internal/service/catalog"
)

// KEYS[1] = lock key, ARGV[1] = owner token
const luaRelease = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

// KEYS[1] = lock key, ARGV[1] = owner token, ARGV[2] = ttl in ms
const luaExtend = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`

// CatalogLock is a catalog.Locker shared by every API instance. The lock
// expires after ttl so a crashed holder cannot wedge the catalog; a live
// holder extends it every ttl/3 until unlock.
type CatalogLock struct {
	rdb     *redis.Client
	key     string
	ttl     time.Duration
	wait    time.Duration
	retry   time.Duration
	release *redis.Script
	extend  *redis.Script
}

var _ catalog.Locker = (*CatalogLock)(nil)

// NewCatalogLock returns a lock held for at most ttl. Lock gives up with
// catalog.ErrLockNotAcquired after wait.
func NewCatalogLock(rdb *redis.Client, ttl, wait time.Duration) *CatalogLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	if wait <= 0 {
		wait = 10 * time.Second
	}

	return &CatalogLock{
		rdb:     rdb,
		key:     KeyCatalogLock(),
		ttl:     ttl,
		wait:    wait,
		retry:   25 * time.Millisecond,
		release: redis.NewScript(luaRelease),
		extend:  redis.NewScript(luaExtend),
	}
}

func (l *CatalogLock) Lock(ctx context.Context) (func(), error) {
	const op = "redis.CatalogLock.Lock"

	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			return l.hold(token), nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: %w", op, catalog.ErrLockNotAcquired)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// hold keeps the lock alive in the background and returns the unlock func.
func (l *CatalogLock) hold(token string) func() {
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		l.keepAlive(ctx, token)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done

			// The caller's ctx may be cancelled by now.
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = l.release.Run(ctx, l.rdb, []string{l.key}, token).Err()
		})
	}
}

func (l *CatalogLock) keepAlive(ctx context.Context, token string) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := l.extend.Run(ctx, l.rdb, []string{l.key}, token, l.ttl.Milliseconds()).Int64()
		if err != nil {
			// Retry on the next tick.
			continue
		}
		if n == 0 {
			// Expired or taken over, nothing left to extend.
			return
		}
	}
}
