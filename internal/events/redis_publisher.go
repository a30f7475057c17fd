package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes each event on a redis pub/sub channel named after
// its kind, e.g. venue:events:OrderMatched.
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: "venue:events:"}
}

// Channel returns the pub/sub channel for an event kind
func (p *RedisPublisher) Channel(kind string) string {
	return p.prefix + kind
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis: encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.Channel(ev.Kind), data).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", ev.Kind, err)
	}
	return nil
}
