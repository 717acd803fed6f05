package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/compliance-service/internal/persistence"
)

// TicketCounterRepository reads and writes per-(tenant, prefix) serial counters.
// Every method must run inside a transaction so the row lock spans the increment.
type TicketCounterRepository interface {
	LockSerial(ctx context.Context, tenantID, prefix string) (int64, bool, error)
	InsertFirst(ctx context.Context, tenantID, prefix string) (bool, error)
	SaveSerial(ctx context.Context, tenantID, prefix string, serial int64) error
}

type ticketCounterRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCounterRepository instantiates repository.
func NewTicketCounterRepository(pool *pgxpool.Pool) TicketCounterRepository {
	return &ticketCounterRepository{pool: pool}
}

// LockSerial reads the counter row holding an exclusive row lock until the transaction ends.
func (r *ticketCounterRepository) LockSerial(ctx context.Context, tenantID, prefix string) (int64, bool, error) {
	const query = `
        SELECT serial FROM ticket_counter
        WHERE tenant_id=$1 AND prefix=$2
        FOR UPDATE`
	var serial int64
	err := persistence.Executor(ctx, r.pool).QueryRow(ctx, query, tenantID, prefix).Scan(&serial)
	if err = translate(err); err != nil {
		if err == ErrNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lock ticket counter: %w", err)
	}
	return serial, true, nil
}

// InsertFirst creates the counter at serial 1 and reports whether this call created it.
func (r *ticketCounterRepository) InsertFirst(ctx context.Context, tenantID, prefix string) (bool, error) {
	const query = `
        INSERT INTO ticket_counter (tenant_id, prefix, serial)
        VALUES ($1,$2,1)
        ON CONFLICT (tenant_id, prefix) DO NOTHING`
	cmd, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, tenantID, prefix)
	if err != nil {
		return false, fmt.Errorf("insert ticket counter: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketCounterRepository) SaveSerial(ctx context.Context, tenantID, prefix string, serial int64) error {
	const query = `UPDATE ticket_counter SET serial=$3 WHERE tenant_id=$1 AND prefix=$2`
	cmd, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, tenantID, prefix, serial)
	if err != nil {
		return fmt.Errorf("save ticket counter: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
