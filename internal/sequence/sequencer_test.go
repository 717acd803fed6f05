package sequence_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/compliance-service/internal/repository/memory"
	"github.com/spec-kit/compliance-service/internal/sequence"
)

func newMemorySequencer() (*sequence.Sequencer, *memory.Transactor, *memory.TicketCounterStore) {
	tx := memory.NewTransactor()
	store := memory.NewTicketCounterStore()
	return sequence.NewSequencer(tx, store, nil), tx, store
}

func TestNextColdStart(t *testing.T) {
	seq, _, _ := newMemorySequencer()

	ticket, err := seq.Next(context.Background(), "org_1", "AUD")
	require.NoError(t, err)
	assert.Equal(t, "AUD-1", ticket)

	ticket, err = seq.Next(context.Background(), "org_1", "AUD")
	require.NoError(t, err)
	assert.Equal(t, "AUD-2", ticket)
}

func TestNextIsolatesKeys(t *testing.T) {
	seq, _, store := newMemorySequencer()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := seq.Next(ctx, "org_1", "AUD")
		require.NoError(t, err)
	}

	adr, err := seq.Next(ctx, "org_1", "ADR")
	require.NoError(t, err)
	assert.Equal(t, "ADR-1", adr)

	other, err := seq.Next(ctx, "org_2", "AUD")
	require.NoError(t, err)
	assert.Equal(t, "AUD-1", other)

	assert.EqualValues(t, 3, store.Serial("org_1", "AUD"))
	assert.EqualValues(t, 1, store.Serial("org_1", "ADR"))
	assert.EqualValues(t, 1, store.Serial("org_2", "AUD"))
}

func TestNextConcurrentCallersGetExactRange(t *testing.T) {
	seq, _, _ := newMemorySequencer()
	const callers = 64

	serials := make([]int64, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			serial, err := seq.NextSerial(context.Background(), "org_1", "ISS")
			serials[i] = serial
			return err
		})
	}
	require.NoError(t, g.Wait())

	sort.Slice(serials, func(a, b int) bool { return serials[a] < serials[b] })
	for i, serial := range serials {
		assert.EqualValues(t, i+1, serial)
	}
}

func TestNextRejectsEmptyKey(t *testing.T) {
	seq, _, _ := newMemorySequencer()
	_, err := seq.Next(context.Background(), "", "AUD")
	require.ErrorIs(t, err, sequence.ErrInvalidKey)
	_, err = seq.Next(context.Background(), "org_1", "")
	require.ErrorIs(t, err, sequence.ErrInvalidKey)
}

func TestNextJoinsOuterTransaction(t *testing.T) {
	seq, tx, _ := newMemorySequencer()
	ctx := context.Background()
	boom := errors.New("record write failed")

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := seq.Next(ctx, "org_1", "POL")
		require.NoError(t, err)
		assert.Equal(t, "POL-1", ticket)
		return boom
	})
	require.ErrorIs(t, err, boom)

	ticket, err := seq.Next(ctx, "org_1", "POL")
	require.NoError(t, err)
	assert.Equal(t, "POL-1", ticket, "rolled back serial is issued again")

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := seq.Next(ctx, "org_1", "POL")
		return err
	})
	require.NoError(t, err)
	ticket, err = seq.Next(ctx, "org_1", "POL")
	require.NoError(t, err)
	assert.Equal(t, "POL-3", ticket)
}

func TestNextObserver(t *testing.T) {
	var seen []int64
	seq := sequence.NewSequencer(memory.NewTransactor(), memory.NewTicketCounterStore(), nil,
		sequence.WithObserver(func(prefix string, serial int64) {
			assert.Equal(t, "RSK", prefix)
			seen = append(seen, serial)
		}))
	for i := 0; i < 2; i++ {
		_, err := seq.Next(context.Background(), "org_1", "RSK")
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1, 2}, seen)
}

type scriptedCounters struct {
	locks    []lockResult
	inserted bool
	saved    int64
	err      error
}

type lockResult struct {
	serial int64
	found  bool
}

func (s *scriptedCounters) LockSerial(context.Context, string, string) (int64, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	next := s.locks[0]
	s.locks = s.locks[1:]
	return next.serial, next.found, nil
}

func (s *scriptedCounters) InsertFirst(context.Context, string, string) (bool, error) {
	return s.inserted, nil
}

func (s *scriptedCounters) SaveSerial(_ context.Context, _, _ string, serial int64) error {
	s.saved = serial
	return nil
}

func TestNextLostInsertRace(t *testing.T) {
	t.Run("re-reads under lock and increments", func(t *testing.T) {
		counters := &scriptedCounters{locks: []lockResult{{found: false}, {serial: 4, found: true}}}
		seq := sequence.NewSequencer(memory.NewTransactor(), counters, nil)

		ticket, err := seq.Next(context.Background(), "org_1", "CTL")
		require.NoError(t, err)
		assert.Equal(t, "CTL-5", ticket)
		assert.EqualValues(t, 5, counters.saved)
	})

	t.Run("fails when the winning row disappeared", func(t *testing.T) {
		counters := &scriptedCounters{locks: []lockResult{{found: false}, {found: false}}}
		seq := sequence.NewSequencer(memory.NewTransactor(), counters, nil)

		_, err := seq.Next(context.Background(), "org_1", "CTL")
		require.ErrorIs(t, err, sequence.ErrCounterUnavailable)
	})
}

func TestNextSurfacesStoreErrors(t *testing.T) {
	storeErr := errors.New("deadlock detected")
	seq := sequence.NewSequencer(memory.NewTransactor(), &scriptedCounters{err: storeErr}, nil)

	_, err := seq.Next(context.Background(), "org_1", "AUD")
	require.ErrorIs(t, err, storeErr)
}
