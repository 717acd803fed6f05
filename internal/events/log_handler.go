package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/compliance-service/internal/domain"
)

// LogHandler writes each committed event to the structured log.
func LogHandler(logger *zap.Logger) EventHandler {
	return func(_ context.Context, event domain.DomainEvent) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("name", event.Name),
			zap.String("tenant_id", event.TenantID),
			zap.String("actor_id", event.ActorID),
			zap.String("entity_type", event.EntityType),
			zap.String("entity_id", event.EntityID),
			zap.String("revision_id", event.RevisionID),
		}
		if event.RevisionIDBefore != nil {
			fields = append(fields, zap.String("revision_id_before", *event.RevisionIDBefore))
		}
		logger.Info("domain event committed", fields...)
		return nil
	}
}
