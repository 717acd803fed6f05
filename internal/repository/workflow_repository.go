package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/persistence"
)

// WorkflowRepository persists standalone workflow records.
type WorkflowRepository interface {
	Create(ctx context.Context, wf *domain.Workflow) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Workflow, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*domain.Workflow, error)
	Update(ctx context.Context, wf *domain.Workflow, expectedRevision string) error
	ListBySubject(ctx context.Context, tenantID, subjectType, subjectID string) ([]domain.Workflow, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository builds the repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

const workflowColumns = `id, kind, subject_type, subject_id, state, tenant_id, revision_id,
               created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

func (r *workflowRepository) Create(ctx context.Context, wf *domain.Workflow) error {
	const query = `
        INSERT INTO workflows (id, tenant_id, kind, subject_type, subject_id, state, revision_id,
            created_at, created_by, updated_at, updated_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		wf.ID,
		wf.TenantID,
		wf.Kind,
		wf.SubjectType,
		wf.SubjectID,
		wf.State,
		wf.RevisionID,
		wf.CreatedAt,
		wf.CreatedBy,
		wf.UpdatedAt,
		wf.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", translate(err))
	}
	return nil
}

func (r *workflowRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE tenant_id=$1 AND id=$2`
	return r.fetchSingle(ctx, query, tenantID, id)
}

func (r *workflowRepository) GetForUpdate(ctx context.Context, tenantID, id string) (*domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE tenant_id=$1 AND id=$2 FOR UPDATE`
	return r.fetchSingle(ctx, query, tenantID, id)
}

func (r *workflowRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Workflow, error) {
	wf, err := scanWorkflow(persistence.Executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return wf, nil
}

func (r *workflowRepository) Update(ctx context.Context, wf *domain.Workflow, expectedRevision string) error {
	const query = `
        UPDATE workflows SET state=$1, revision_id=$2, updated_at=$3, updated_by=$4, deleted_at=$5, deleted_by=$6
        WHERE tenant_id=$7 AND id=$8 AND revision_id=$9`
	cmd, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		wf.State,
		wf.RevisionID,
		wf.UpdatedAt,
		wf.UpdatedBy,
		wf.DeletedAt,
		wf.DeletedBy,
		wf.TenantID,
		wf.ID,
		expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrRevisionMismatch
	}
	return nil
}

func (r *workflowRepository) ListBySubject(ctx context.Context, tenantID, subjectType, subjectID string) ([]domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
        FROM workflows WHERE tenant_id=$1 AND subject_type=$2 AND subject_id=$3 AND deleted_at IS NULL
        ORDER BY created_at ASC`
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, tenantID, subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Workflow{}
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *wf)
	}
	return result, rows.Err()
}

func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var wf domain.Workflow
	if err := row.Scan(
		&wf.ID,
		&wf.Kind,
		&wf.SubjectType,
		&wf.SubjectID,
		&wf.State,
		&wf.TenantID,
		&wf.RevisionID,
		&wf.CreatedAt,
		&wf.CreatedBy,
		&wf.UpdatedAt,
		&wf.UpdatedBy,
		&wf.DeletedAt,
		&wf.DeletedBy,
	); err != nil {
		return nil, err
	}
	return &wf, nil
}
