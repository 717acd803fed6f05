package revision

import (
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/ident"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string {
	return "tok-" + strconv.FormatInt(s.n.Add(1), 10)
}

func steppingClock(start time.Time) ident.Clock {
	var n atomic.Int64
	return ident.ClockFunc(func() time.Time {
		return start.Add(time.Duration(n.Add(1)) * time.Second)
	})
}

var actor = domain.Actor{TenantID: "org_1", MemberID: "mem_1"}

func TestStampLifecycle(t *testing.T) {
	chain := NewChain(&seqIDs{}, steppingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	var rev domain.Revision
	begin := chain.Begin(actor)
	before := begin.Apply(&rev)
	assert.Nil(t, before)
	assert.Equal(t, "org_1", rev.TenantID)
	assert.Equal(t, "mem_1", rev.CreatedBy)
	assert.Equal(t, rev.CreatedAt, rev.UpdatedAt)
	assert.False(t, rev.Deleted())
	created := rev.RevisionID

	editor := domain.Actor{TenantID: "org_1", MemberID: "mem_2"}
	advance := chain.Advance(editor)
	before = advance.Apply(&rev)
	require.NotNil(t, before)
	assert.Equal(t, created, *before)
	assert.Equal(t, "mem_1", rev.CreatedBy)
	assert.Equal(t, "mem_2", rev.UpdatedBy)
	assert.True(t, rev.UpdatedAt.After(rev.CreatedAt))
	updated := rev.RevisionID

	retire := chain.Retire(actor)
	before = retire.Apply(&rev)
	require.NotNil(t, before)
	assert.Equal(t, updated, *before)
	require.True(t, rev.Deleted())
	assert.Equal(t, "mem_1", *rev.DeletedBy)
	assert.Equal(t, "mem_2", rev.UpdatedBy, "retire leaves updated markers alone")

	assert.NotEqual(t, created, updated)
	assert.NotEqual(t, updated, rev.RevisionID)
	assert.NotEqual(t, created, rev.RevisionID)
}

func TestDescribeBuildsContinuousChain(t *testing.T) {
	chain := NewChain(nil, nil)
	var rev domain.Revision
	var events []domain.DomainEvent

	for _, step := range []struct {
		stamp Stamp
		name  string
	}{
		{chain.Begin(actor), "issue.created"},
		{chain.Advance(actor), "issue.updated"},
		{chain.Retire(actor), "issue.deleted"},
	} {
		before := step.stamp.Apply(&rev)
		events = append(events, chain.Describe(actor, "issue", "iss-1", step.name, before, rev.RevisionID))
	}

	require.Len(t, events, 3)
	assert.Nil(t, events[0].RevisionIDBefore)
	assert.Equal(t, events[0].RevisionID, *events[1].RevisionIDBefore)
	assert.Equal(t, events[1].RevisionID, *events[2].RevisionIDBefore)
	assert.Equal(t, "org_1", events[2].TenantID)
	assert.Equal(t, "mem_1", events[2].ActorID)
	require.NoError(t, VerifyChain(events))
}

func TestVerifyChainDetectsBreaks(t *testing.T) {
	a, b := "rev-a", "rev-b"
	now := time.Now()
	base := []domain.DomainEvent{
		{ID: "1", EntityType: "risk", EntityID: "r1", RevisionID: a, Timestamp: now},
		{ID: "2", EntityType: "risk", EntityID: "r1", RevisionIDBefore: &a, RevisionID: b, Timestamp: now.Add(time.Second)},
	}
	require.NoError(t, VerifyChain(base))
	require.NoError(t, VerifyChain(nil))

	gap := append([]domain.DomainEvent{}, base...)
	gap[1].RevisionIDBefore = &b
	require.ErrorIs(t, VerifyChain(gap), ErrBrokenChain)

	orphan := append([]domain.DomainEvent{}, base...)
	orphan[0].RevisionIDBefore = &b
	require.ErrorIs(t, VerifyChain(orphan), ErrBrokenChain)

	mixed := append([]domain.DomainEvent{}, base...)
	mixed[1].EntityID = "r2"
	require.ErrorIs(t, VerifyChain(mixed), ErrBrokenChain)

	backwards := append([]domain.DomainEvent{}, base...)
	backwards[1].Timestamp = now.Add(-time.Second)
	require.ErrorIs(t, VerifyChain(backwards), ErrBrokenChain)
}
