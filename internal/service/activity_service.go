package service

import (
	"context"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/repository"
)

// ActivityService exposes the tenant-wide audit event feed.
type ActivityService struct {
	events repository.EventRepository
}

// NewActivityService constructs the service.
func NewActivityService(events repository.EventRepository) *ActivityService {
	return &ActivityService{events: events}
}

// Feed returns the actor tenant's events, oldest first.
func (s *ActivityService) Feed(ctx context.Context, actor domain.Actor, filter repository.EventFilter) ([]domain.DomainEvent, error) {
	return s.events.ListByTenant(ctx, actor.TenantID, filter)
}
