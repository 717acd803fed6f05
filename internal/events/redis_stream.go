package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/compliance-service/internal/domain"
)

// StreamMessage is the JSON payload written to the Redis stream.
type StreamMessage struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ActorID          string    `json:"actor_id"`
	TenantID         string    `json:"tenant_id"`
	Timestamp        time.Time `json:"timestamp"`
	RevisionIDBefore *string   `json:"revision_id_before"`
	RevisionID       string    `json:"revision_id"`
	EntityType       string    `json:"entity_type"`
	EntityID         string    `json:"entity_id"`
}

// RedisStreamPublisher appends committed events to a Redis stream for downstream consumers.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher builds a publisher. maxLen <= 0 leaves the stream untrimmed.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Handle satisfies EventHandler.
func (p *RedisStreamPublisher) Handle(ctx context.Context, event domain.DomainEvent) error {
	payload, err := sonic.Marshal(StreamMessage{
		ID:               event.ID,
		Name:             event.Name,
		ActorID:          event.ActorID,
		TenantID:         event.TenantID,
		Timestamp:        event.Timestamp,
		RevisionIDBefore: event.RevisionIDBefore,
		RevisionID:       event.RevisionID,
		EntityType:       event.EntityType,
		EntityID:         event.EntityID,
	})
	if err != nil {
		return fmt.Errorf("encode stream event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"name":    event.Name,
			"tenant":  event.TenantID,
			"payload": string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// DecodeStreamMessage parses the payload field of a stream entry.
func DecodeStreamMessage(msg redis.XMessage) (StreamMessage, error) {
	var out StreamMessage
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return out, fmt.Errorf("stream entry %s has no payload", msg.ID)
	}
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return out, fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
	}
	return out, nil
}
