package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/repository"
)

type recordRow[B any] struct {
	lock rowLock
	rec  domain.Record[B]
}

// RecordStore is the memory twin of repository.RecordRepository.
type RecordStore[B any] struct {
	mu         sync.Mutex
	entityType string
	rows       map[string]*recordRow[B]
}

// NewRecordStore creates a store for one entity kind.
func NewRecordStore[B any](entityType string) *RecordStore[B] {
	return &RecordStore[B]{entityType: entityType, rows: make(map[string]*recordRow[B])}
}

func (s *RecordStore[B]) Insert(ctx context.Context, rec *domain.Record[B]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[rec.ID]; exists {
		return errDuplicate
	}
	for _, row := range s.rows {
		if row.rec.TenantID == rec.TenantID && row.rec.Ticket == rec.Ticket {
			return errDuplicate
		}
	}
	stored := *rec
	stored.EntityType = s.entityType
	row := &recordRow[B]{rec: stored}
	lock(ctx, &row.lock)
	s.rows[rec.ID] = row
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.rows, rec.ID)
	})
	return nil
}

func (s *RecordStore[B]) Get(_ context.Context, tenantID, id string) (*domain.Record[B], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.rec.TenantID != tenantID {
		return nil, errNotFound
	}
	rec := row.rec
	return &rec, nil
}

func (s *RecordStore[B]) GetForUpdate(ctx context.Context, tenantID, id string) (*domain.Record[B], error) {
	s.mu.Lock()
	row, ok := s.rows[id]
	s.mu.Unlock()
	if !ok {
		return nil, errNotFound
	}
	lock(ctx, &row.lock)
	return s.Get(ctx, tenantID, id)
}

func (s *RecordStore[B]) GetByTicket(_ context.Context, tenantID, ticket string) (*domain.Record[B], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.rec.TenantID == tenantID && row.rec.Ticket == ticket {
			rec := row.rec
			return &rec, nil
		}
	}
	return nil, errNotFound
}

func (s *RecordStore[B]) Update(ctx context.Context, rec *domain.Record[B], expectedRevision string) error {
	s.mu.Lock()
	row, ok := s.rows[rec.ID]
	s.mu.Unlock()
	if !ok {
		return errRevisionMismatch
	}
	lock(ctx, &row.lock)

	s.mu.Lock()
	defer s.mu.Unlock()
	if row.rec.TenantID != rec.TenantID || row.rec.RevisionID != expectedRevision {
		return errRevisionMismatch
	}
	prev := row.rec
	next := *rec
	next.EntityType = s.entityType
	next.Ticket = prev.Ticket
	next.CreatedAt, next.CreatedBy = prev.CreatedAt, prev.CreatedBy
	row.rec = next
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.rec = prev
	})
	return nil
}

func (s *RecordStore[B]) List(_ context.Context, tenantID string, filter repository.RecordFilter) ([]domain.Record[B], error) {
	states := make(map[string]struct{}, len(filter.States))
	for _, state := range filter.States {
		states[state] = struct{}{}
	}
	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	s.mu.Lock()
	matched := []domain.Record[B]{}
	for _, row := range s.rows {
		rec := row.rec
		if rec.TenantID != tenantID {
			continue
		}
		if rec.Deleted() && !filter.IncludeDeleted {
			continue
		}
		if len(states) > 0 {
			if _, ok := states[rec.State]; !ok {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.Ticket), search) {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return page(matched, filter.Limit, filter.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
