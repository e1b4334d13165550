package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

// RedisPublishClient - то, что нужно от *redis.Client.
type RedisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher публикует каждое событие пачки в канал Redis Pub/Sub.
type RedisPublisher struct {
	rdb     RedisPublishClient
	channel string
}

func NewRedisPublisher(rdb RedisPublishClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) WriteBatch(ctx context.Context, events []domain.ScoredEvent) error {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.ID, err)
		}
		if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
			return fmt.Errorf("redis publish to %s: %w", p.channel, err)
		}
	}
	return nil
}
