package worker

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/compliance-service/internal/config"
	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/events"
)

func TestStartEventWorkerFansOut(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartEventWorker(dispatcher, config.EventsConfig{Stream: "compliance:events", StreamMaxLen: 100, LogEvents: true}, client, zap.New(core))

	err := dispatcher.Publish(context.Background(), domain.DomainEvent{
		ID: "evt-1", Name: "audit.created", TenantID: "org_1", EntityType: "audit", EntityID: "a-1", RevisionID: "r-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("domain event committed").Len())
	entries, err := client.XRange(context.Background(), "compliance:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	msg, err := events.DecodeStreamMessage(entries[0])
	require.NoError(t, err)
	assert.Equal(t, "audit.created", msg.Name)
}

func TestStartEventWorkerWithoutRedis(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartEventWorker(dispatcher, config.EventsConfig{Stream: "compliance:events"}, nil, zap.New(core))

	require.NoError(t, dispatcher.Publish(context.Background(), domain.DomainEvent{ID: "evt-1", Name: "audit.created"}))
	assert.Equal(t, 1, logs.FilterMessage("events stream disabled").Len())
	assert.Zero(t, logs.FilterMessage("domain event committed").Len())
}
