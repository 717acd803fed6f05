package events

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/compliance-service/internal/domain"
)

func sampleEvent() domain.DomainEvent {
	before := "rev-1"
	return domain.DomainEvent{
		ID:               "evt-1",
		Name:             "issue.updated",
		ActorID:          "mem_1",
		TenantID:         "org_1",
		Timestamp:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RevisionIDBefore: &before,
		RevisionID:       "rev-2",
		EntityType:       "issue",
		EntityID:         "iss-1",
	}
}

func TestDispatcherRoutesByNameAndWildcard(t *testing.T) {
	d := NewInMemoryDispatcher()
	var named, all int
	d.Subscribe("issue.updated", func(context.Context, domain.DomainEvent) error { named++; return nil })
	d.Subscribe("audit.created", func(context.Context, domain.DomainEvent) error { t.Fatal("wrong route"); return nil })
	d.Subscribe(Wildcard, func(context.Context, domain.DomainEvent) error { all++; return nil })

	require.NoError(t, d.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, 1, named)
	assert.Equal(t, 1, all)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var reached bool
	d.Subscribe(Wildcard, func(context.Context, domain.DomainEvent) error { return boom })
	d.Subscribe(Wildcard, func(context.Context, domain.DomainEvent) error { reached = true; return nil })

	err := d.Publish(context.Background(), sampleEvent())
	require.ErrorIs(t, err, boom)
	assert.True(t, reached)
}

func TestRedisStreamPublisher(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	pub := NewRedisStreamPublisher(client, "compliance:events", 1000)
	require.NoError(t, pub.Handle(ctx, sampleEvent()))

	entries, err := client.XRange(ctx, "compliance:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "issue.updated", entries[0].Values["name"])
	assert.Equal(t, "org_1", entries[0].Values["tenant"])

	msg, err := DecodeStreamMessage(entries[0])
	require.NoError(t, err)
	assert.Equal(t, "evt-1", msg.ID)
	assert.Equal(t, "rev-2", msg.RevisionID)
	require.NotNil(t, msg.RevisionIDBefore)
	assert.Equal(t, "rev-1", *msg.RevisionIDBefore)
	assert.True(t, msg.Timestamp.Equal(sampleEvent().Timestamp))

	_, err = DecodeStreamMessage(redis.XMessage{ID: "0-1", Values: map[string]any{}})
	require.Error(t, err)
}

func TestRedisStreamPublisherSurfacesErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	pub := NewRedisStreamPublisher(client, "compliance:events", 0)
	require.Error(t, pub.Handle(context.Background(), sampleEvent()))
}

func TestLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := LogHandler(zap.New(core))

	require.NoError(t, handler(context.Background(), sampleEvent()))
	entries := logs.FilterMessage("domain event committed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rev-1", entries[0].ContextMap()["revision_id_before"])
}
