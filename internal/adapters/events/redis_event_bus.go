package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	redisclient "github.com/zatekoja/fellowship/backend/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	client *redisclient.Client
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return &RedisEventBus{client: client}
}

// Publish publishes an event to all subscribers of channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.VerseEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("status", string(event.Status)).
		Msg("Published verse event")
	return nil
}
