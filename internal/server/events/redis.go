package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes JSON payloads on Redis pub/sub channels named
// prefix+topic.
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher wraps an existing client; the caller owns its lifetime.
func NewRedisPublisher(client redis.UniversalClient, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the Redis channel a topic is published on.
func (p *RedisPublisher) Channel(topic string) string {
	return p.prefix + topic
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	if err := p.client.Publish(ctx, p.Channel(topic), body).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
