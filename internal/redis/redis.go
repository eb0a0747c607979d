// Package redis opens the shared go-redis client.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// ConnectTimeout bounds how long New keeps pinging a server that is
	// still starting. Zero means a single 3s attempt.
	ConnectTimeout time.Duration
}

func New(ctx context.Context, cfg Config) (*redis.Client, error) {
	const op = "redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "canteen",
	})

	if err := waitReady(ctx, cfg.ConnectTimeout, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return client, nil
}

// waitReady calls ping until it succeeds or timeout elapses, doubling the
// pause between attempts up to one second.
func waitReady(ctx context.Context, timeout time.Duration, ping func(ctx context.Context) error) error {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pause := 50 * time.Millisecond
	for {
		err := ping(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(pause):
		}

		if pause < time.Second {
			pause *= 2
		}
	}
}
