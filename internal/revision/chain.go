// Package revision stamps mutations with fresh revision tokens and builds the audit
// events that link each revision to the one before it.
//
// Callers pair every Begin, Advance or Retire with exactly one Describe whose before
// is the revision held prior to the stamp and whose after is the stamp's token, and
// append that event in the same transaction as the record write.
package revision

import (
	"time"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/ident"
)

// Stamp is a partial revision update. Only the fields a stamp sets are merged by Apply.
type Stamp struct {
	RevisionID string
	At         time.Time
	Actor      domain.Actor
	kind       stampKind
}

type stampKind int

const (
	stampBegin stampKind = iota + 1
	stampAdvance
	stampRetire
)

// Chain produces stamps and events.
type Chain struct {
	ids   ident.Generator
	clock ident.Clock
}

// NewChain builds a chain. Nil arguments fall back to UUIDs and the system clock.
func NewChain(ids ident.Generator, clock ident.Clock) *Chain {
	if ids == nil {
		ids = ident.UUIDGenerator{}
	}
	if clock == nil {
		clock = ident.SystemClock{}
	}
	return &Chain{ids: ids, clock: clock}
}

// Begin stamps a brand-new record.
func (c *Chain) Begin(actor domain.Actor) Stamp {
	return c.stamp(actor, stampBegin)
}

// Advance stamps a content update.
func (c *Chain) Advance(actor domain.Actor) Stamp {
	return c.stamp(actor, stampAdvance)
}

// Retire stamps a soft delete.
func (c *Chain) Retire(actor domain.Actor) Stamp {
	return c.stamp(actor, stampRetire)
}

func (c *Chain) stamp(actor domain.Actor, kind stampKind) Stamp {
	return Stamp{RevisionID: c.ids.NewID(), At: c.clock.Now(), Actor: actor, kind: kind}
}

// Apply merges the stamp into rev and returns the revision id rev held before, nil for a begin stamp.
func (s Stamp) Apply(rev *domain.Revision) *string {
	var before *string
	if s.kind != stampBegin && rev.RevisionID != "" {
		prev := rev.RevisionID
		before = &prev
	}
	rev.RevisionID = s.RevisionID
	switch s.kind {
	case stampBegin:
		rev.TenantID = s.Actor.TenantID
		rev.CreatedAt = s.At
		rev.CreatedBy = s.Actor.MemberID
		rev.UpdatedAt = s.At
		rev.UpdatedBy = s.Actor.MemberID
		rev.DeletedAt = nil
		rev.DeletedBy = nil
	case stampAdvance:
		rev.UpdatedAt = s.At
		rev.UpdatedBy = s.Actor.MemberID
	case stampRetire:
		at := s.At
		by := s.Actor.MemberID
		rev.DeletedAt = &at
		rev.DeletedBy = &by
	}
	return before
}

// Describe builds the audit event for one stamped mutation.
func (c *Chain) Describe(actor domain.Actor, entityType, entityID, eventName string, before *string, after string) domain.DomainEvent {
	var prior *string
	if before != nil {
		v := *before
		prior = &v
	}
	return domain.DomainEvent{
		ID:               c.ids.NewID(),
		Name:             eventName,
		ActorID:          actor.MemberID,
		TenantID:         actor.TenantID,
		Timestamp:        c.clock.Now(),
		RevisionIDBefore: prior,
		RevisionID:       after,
		EntityType:       entityType,
		EntityID:         entityID,
	}
}
