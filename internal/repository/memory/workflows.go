package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/compliance-service/internal/domain"
)

type workflowRow struct {
	lock rowLock
	wf   domain.Workflow
}

// WorkflowStore is the memory twin of repository.WorkflowRepository.
type WorkflowStore struct {
	mu   sync.Mutex
	rows map[string]*workflowRow
}

// NewWorkflowStore creates an empty store.
func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{rows: make(map[string]*workflowRow)}
}

func (s *WorkflowStore) Create(ctx context.Context, wf *domain.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[wf.ID]; exists {
		return errDuplicate
	}
	row := &workflowRow{wf: *wf}
	lock(ctx, &row.lock)
	s.rows[wf.ID] = row
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.rows, wf.ID)
	})
	return nil
}

func (s *WorkflowStore) GetByID(_ context.Context, tenantID, id string) (*domain.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.wf.TenantID != tenantID {
		return nil, errNotFound
	}
	wf := row.wf
	return &wf, nil
}

func (s *WorkflowStore) GetForUpdate(ctx context.Context, tenantID, id string) (*domain.Workflow, error) {
	s.mu.Lock()
	row, ok := s.rows[id]
	s.mu.Unlock()
	if !ok {
		return nil, errNotFound
	}
	lock(ctx, &row.lock)
	return s.GetByID(ctx, tenantID, id)
}

func (s *WorkflowStore) Update(ctx context.Context, wf *domain.Workflow, expectedRevision string) error {
	s.mu.Lock()
	row, ok := s.rows[wf.ID]
	s.mu.Unlock()
	if !ok {
		return errRevisionMismatch
	}
	lock(ctx, &row.lock)

	s.mu.Lock()
	defer s.mu.Unlock()
	if row.wf.TenantID != wf.TenantID || row.wf.RevisionID != expectedRevision {
		return errRevisionMismatch
	}
	prev := row.wf
	row.wf = *wf
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.wf = prev
	})
	return nil
}

func (s *WorkflowStore) ListBySubject(_ context.Context, tenantID, subjectType, subjectID string) ([]domain.Workflow, error) {
	s.mu.Lock()
	out := []domain.Workflow{}
	for _, row := range s.rows {
		wf := row.wf
		if wf.TenantID == tenantID && wf.SubjectType == subjectType && wf.SubjectID == subjectID && !wf.Deleted() {
			out = append(out, wf)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
