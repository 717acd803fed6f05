package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/persistence"
)

// EventFilter narrows tenant-wide event listings.
type EventFilter struct {
	EntityType *string
	Since      *time.Time
	Limit      int
	Offset     int
}

// EventRepository is the append-only audit trail. There is no update or delete.
type EventRepository interface {
	Append(ctx context.Context, event *domain.DomainEvent) error
	ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]domain.DomainEvent, error)
	ListByTenant(ctx context.Context, tenantID string, filter EventFilter) ([]domain.DomainEvent, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository builds repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.DomainEvent) error {
	const query = `
        INSERT INTO events (id, name, actor_id, tenant_id, entity_type, entity_id, revision_id_before, revision_id, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING seq`
	err := persistence.Executor(ctx, r.pool).QueryRow(ctx, query,
		event.ID,
		event.Name,
		event.ActorID,
		event.TenantID,
		event.EntityType,
		event.EntityID,
		event.RevisionIDBefore,
		event.RevisionID,
		event.Timestamp,
	).Scan(&event.Seq)
	if err != nil {
		return fmt.Errorf("append event: %w", translate(err))
	}
	return nil
}

const eventColumns = `seq, id, name, actor_id, tenant_id, entity_type, entity_id, revision_id_before, revision_id, occurred_at`

func (r *eventRepository) ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]domain.DomainEvent, error) {
	query := `SELECT ` + eventColumns + `
        FROM events WHERE tenant_id=$1 AND entity_type=$2 AND entity_id=$3
        ORDER BY occurred_at ASC, seq ASC`
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) ListByTenant(ctx context.Context, tenantID string, filter EventFilter) ([]domain.DomainEvent, error) {
	args := []any{tenantID}
	clauses := "tenant_id=$1"
	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		clauses += fmt.Sprintf(" AND entity_type=$%d", len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		clauses += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY occurred_at ASC, seq ASC LIMIT %d OFFSET %d`,
		eventColumns, clauses, limit, offset)

	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.DomainEvent, error) {
	result := []domain.DomainEvent{}
	for rows.Next() {
		var event domain.DomainEvent
		if err := rows.Scan(
			&event.Seq,
			&event.ID,
			&event.Name,
			&event.ActorID,
			&event.TenantID,
			&event.EntityType,
			&event.EntityID,
			&event.RevisionIDBefore,
			&event.RevisionID,
			&event.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
