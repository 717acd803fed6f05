package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/repository"
)

// EventStore is an append-only in-memory event log.
type EventStore struct {
	mu     sync.Mutex
	seq    int64
	events []domain.DomainEvent
}

// NewEventStore creates an empty log.
func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) Append(ctx context.Context, event *domain.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.events {
		if existing.ID == event.ID {
			return errDuplicate
		}
	}
	s.seq++
	event.Seq = s.seq
	s.events = append(s.events, *event)
	seq := event.Seq
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.events {
			if s.events[i].Seq == seq {
				s.events = append(s.events[:i], s.events[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *EventStore) ListByEntity(_ context.Context, tenantID, entityType, entityID string) ([]domain.DomainEvent, error) {
	return s.collect(func(e domain.DomainEvent) bool {
		return e.TenantID == tenantID && e.EntityType == entityType && e.EntityID == entityID
	}), nil
}

func (s *EventStore) ListByTenant(_ context.Context, tenantID string, filter repository.EventFilter) ([]domain.DomainEvent, error) {
	matched := s.collect(func(e domain.DomainEvent) bool {
		if e.TenantID != tenantID {
			return false
		}
		if filter.EntityType != nil && e.EntityType != *filter.EntityType {
			return false
		}
		return filter.Since == nil || !e.Timestamp.Before(*filter.Since)
	})
	return page(matched, filter.Limit, filter.Offset), nil
}

// All returns every appended event in append order.
func (s *EventStore) All() []domain.DomainEvent {
	return s.collect(func(domain.DomainEvent) bool { return true })
}

func (s *EventStore) collect(keep func(domain.DomainEvent) bool) []domain.DomainEvent {
	s.mu.Lock()
	out := []domain.DomainEvent{}
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
