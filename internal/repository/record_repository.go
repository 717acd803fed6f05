package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/persistence"
)

// RecordFilter captures listing parameters for one entity kind.
type RecordFilter struct {
	States         []string
	SearchTerm     *string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// RecordRepository persists records of one entity kind with a JSON body.
type RecordRepository[B any] interface {
	Insert(ctx context.Context, rec *domain.Record[B]) error
	Get(ctx context.Context, tenantID, id string) (*domain.Record[B], error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*domain.Record[B], error)
	GetByTicket(ctx context.Context, tenantID, ticket string) (*domain.Record[B], error)
	Update(ctx context.Context, rec *domain.Record[B], expectedRevision string) error
	List(ctx context.Context, tenantID string, filter RecordFilter) ([]domain.Record[B], error)
}

type recordRepository[B any] struct {
	pool       *pgxpool.Pool
	entityType string
}

// NewRecordRepository builds a repository over the shared records table scoped to entityType.
func NewRecordRepository[B any](pool *pgxpool.Pool, entityType string) RecordRepository[B] {
	return &recordRepository[B]{pool: pool, entityType: entityType}
}

const recordColumns = `id, entity_type, ticket, state, body, tenant_id, revision_id,
               created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

func (r *recordRepository[B]) Insert(ctx context.Context, rec *domain.Record[B]) error {
	body, err := sonic.Marshal(rec.Body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", r.entityType, err)
	}
	const query = `
        INSERT INTO records (id, tenant_id, entity_type, ticket, state, body, revision_id,
            created_at, created_by, updated_at, updated_by, deleted_at, deleted_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err = persistence.Executor(ctx, r.pool).Exec(ctx, query,
		rec.ID,
		rec.TenantID,
		r.entityType,
		rec.Ticket,
		rec.State,
		body,
		rec.RevisionID,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.UpdatedAt,
		rec.UpdatedBy,
		rec.DeletedAt,
		rec.DeletedBy,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", r.entityType, translate(err))
	}
	return nil
}

func (r *recordRepository[B]) Get(ctx context.Context, tenantID, id string) (*domain.Record[B], error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE tenant_id=$1 AND entity_type=$2 AND id=$3`
	return r.fetchSingle(ctx, query, tenantID, r.entityType, id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *recordRepository[B]) GetForUpdate(ctx context.Context, tenantID, id string) (*domain.Record[B], error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE tenant_id=$1 AND entity_type=$2 AND id=$3 FOR UPDATE`
	return r.fetchSingle(ctx, query, tenantID, r.entityType, id)
}

func (r *recordRepository[B]) GetByTicket(ctx context.Context, tenantID, ticket string) (*domain.Record[B], error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE tenant_id=$1 AND entity_type=$2 AND ticket=$3`
	return r.fetchSingle(ctx, query, tenantID, r.entityType, ticket)
}

func (r *recordRepository[B]) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Record[B], error) {
	rec, err := scanRecord[B](persistence.Executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

// Update writes rec only if the stored revision still equals expectedRevision.
func (r *recordRepository[B]) Update(ctx context.Context, rec *domain.Record[B], expectedRevision string) error {
	body, err := sonic.Marshal(rec.Body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", r.entityType, err)
	}
	const query = `
        UPDATE records SET state=$1, body=$2, revision_id=$3, updated_at=$4, updated_by=$5,
            deleted_at=$6, deleted_by=$7
        WHERE tenant_id=$8 AND entity_type=$9 AND id=$10 AND revision_id=$11`
	cmd, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		rec.State,
		body,
		rec.RevisionID,
		rec.UpdatedAt,
		rec.UpdatedBy,
		rec.DeletedAt,
		rec.DeletedBy,
		rec.TenantID,
		r.entityType,
		rec.ID,
		expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.entityType, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrRevisionMismatch
	}
	return nil
}

func (r *recordRepository[B]) List(ctx context.Context, tenantID string, filter RecordFilter) ([]domain.Record[B], error) {
	clauses := []string{"tenant_id=$1", "entity_type=$2"}
	args := []any{tenantID, r.entityType}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(ticket) LIKE %s OR LOWER(body->>'title') LIKE %s)", placeholder, placeholder))
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM records WHERE %s ORDER BY updated_at DESC, id LIMIT %d OFFSET %d`,
		recordColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Record[B]{}
	for rows.Next() {
		rec, err := scanRecord[B](rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

func scanRecord[B any](row pgx.Row) (*domain.Record[B], error) {
	var (
		rec  domain.Record[B]
		body []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.EntityType,
		&rec.Ticket,
		&rec.State,
		&body,
		&rec.TenantID,
		&rec.RevisionID,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&rec.UpdatedAt,
		&rec.UpdatedBy,
		&rec.DeletedAt,
		&rec.DeletedBy,
	); err != nil {
		return nil, err
	}
	if len(body) > 0 {
		if err := sonic.Unmarshal(body, &rec.Body); err != nil {
			return nil, fmt.Errorf("decode %s body: %w", rec.EntityType, err)
		}
	}
	return &rec, nil
}
