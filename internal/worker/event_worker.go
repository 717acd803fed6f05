package worker

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/compliance-service/internal/config"
	"github.com/spec-kit/compliance-service/internal/events"
)

// StartEventWorker subscribes the post-commit handlers: the structured event log and, when a
// Redis client is available, the events stream.
func StartEventWorker(dispatcher events.Dispatcher, cfg config.EventsConfig, client *redis.Client, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	if cfg.LogEvents {
		dispatcher.Subscribe(events.Wildcard, events.LogHandler(logger))
	}
	if client == nil || cfg.Stream == "" {
		logger.Info("events stream disabled")
		return
	}
	publisher := events.NewRedisStreamPublisher(client, cfg.Stream, cfg.StreamMaxLen)
	dispatcher.Subscribe(events.Wildcard, publisher.Handle)
	logger.Info("events stream enabled", zap.String("stream", cfg.Stream))
}
