package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	contractsv1 "humanity/contracts/gen/events/v1"
)

const redisChannelPrefix = "hmn:events:"

// RedisPublisher relays envelopes to Redis pub/sub, one channel per event
// type.
type RedisPublisher struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisPublisher(url string, logger *slog.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{client: redis.NewClient(opts), logger: logger}, nil
}

func RedisChannel(eventType string) string {
	return redisChannelPrefix + eventType
}

func (p *RedisPublisher) Publish(ctx context.Context, event contractsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := RedisChannel(event.EventType)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.Error("redis publish failed",
			"event", "redis_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"channel", channel,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
