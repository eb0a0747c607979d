package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

// CatalogPubSub fans catalog changes out to every API instance.
type CatalogPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewCatalogPubSub(rdb *redis.Client) *CatalogPubSub {
	return &CatalogPubSub{
		rdb:     rdb,
		channel: ChannelCatalogChanged(),
	}
}

func (p *CatalogPubSub) PublishCatalogChanged(ctx context.Context, change domain.CatalogChange) error {
	const op = "redis.CatalogPubSub.PublishCatalogChanged"

	b, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Subscribe calls handler for every well-formed change until ctx is done.
func (p *CatalogPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, change domain.CatalogChange)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	// Wait for the subscription so nothing published after Subscribe
	// returns control is missed.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var change domain.CatalogChange
			if err := json.Unmarshal([]byte(m.Payload), &change); err == nil &&
				change.VenueID != 0 {
				handler(ctx, change)
			}
		}
	}
}
