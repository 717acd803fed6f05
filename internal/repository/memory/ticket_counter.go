package memory

import (
	"context"
	"sync"
)

type counterKey struct {
	tenantID string
	prefix   string
}

type counterRow struct {
	lock   rowLock
	serial int64
	gone   bool
}

// TicketCounterStore keeps serial counters in memory.
type TicketCounterStore struct {
	mu   sync.Mutex
	rows map[counterKey]*counterRow
}

// NewTicketCounterStore creates an empty store.
func NewTicketCounterStore() *TicketCounterStore {
	return &TicketCounterStore{rows: make(map[counterKey]*counterRow)}
}

func (s *TicketCounterStore) row(key counterKey) *counterRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[key]
}

// LockSerial blocks until the row lock is free, like SELECT ... FOR UPDATE.
func (s *TicketCounterStore) LockSerial(ctx context.Context, tenantID, prefix string) (int64, bool, error) {
	row := s.row(counterKey{tenantID, prefix})
	if row == nil {
		return 0, false, nil
	}
	lock(ctx, &row.lock)
	if row.gone {
		return 0, false, nil
	}
	return row.serial, true, nil
}

// InsertFirst creates the row at serial 1 and locks it for the caller's transaction.
func (s *TicketCounterStore) InsertFirst(ctx context.Context, tenantID, prefix string) (bool, error) {
	key := counterKey{tenantID, prefix}
	s.mu.Lock()
	if _, exists := s.rows[key]; exists {
		s.mu.Unlock()
		return false, nil
	}
	row := &counterRow{serial: 1}
	lock(ctx, &row.lock)
	s.rows[key] = row
	s.mu.Unlock()

	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.gone = true
		if s.rows[key] == row {
			delete(s.rows, key)
		}
	})
	return true, nil
}

// SaveSerial overwrites the serial of a row the caller has locked.
func (s *TicketCounterStore) SaveSerial(ctx context.Context, tenantID, prefix string, serial int64) error {
	row := s.row(counterKey{tenantID, prefix})
	if row == nil || row.gone {
		return errNotFound
	}
	lock(ctx, &row.lock)
	prev := row.serial
	row.serial = serial
	onRollback(ctx, func() { row.serial = prev })
	return nil
}

// Serial reports the committed serial for a key, zero when absent.
func (s *TicketCounterStore) Serial(tenantID, prefix string) int64 {
	row := s.row(counterKey{tenantID, prefix})
	if row == nil {
		return 0
	}
	row.lock.mu.Lock()
	defer row.lock.mu.Unlock()
	return row.serial
}
