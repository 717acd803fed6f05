package revision

import (
	"errors"
	"fmt"

	"github.com/spec-kit/compliance-service/internal/domain"
)

// ErrBrokenChain reports a gap or fork in an entity's event history.
var ErrBrokenChain = errors.New("revision chain broken")

// VerifyChain checks that events, ordered as stored, form one continuous chain for a single entity.
func VerifyChain(events []domain.DomainEvent) error {
	for i, event := range events {
		if i == 0 {
			if event.RevisionIDBefore != nil {
				return fmt.Errorf("%w: event 0 (%s) has a prior revision", ErrBrokenChain, event.ID)
			}
			continue
		}
		prev := events[i-1]
		if event.EntityType != prev.EntityType || event.EntityID != prev.EntityID {
			return fmt.Errorf("%w: event %d belongs to %s/%s", ErrBrokenChain, i, event.EntityType, event.EntityID)
		}
		if event.Timestamp.Before(prev.Timestamp) {
			return fmt.Errorf("%w: event %d precedes event %d", ErrBrokenChain, i, i-1)
		}
		if event.RevisionIDBefore == nil || *event.RevisionIDBefore != prev.RevisionID {
			return fmt.Errorf("%w: event %d does not follow revision %s", ErrBrokenChain, i, prev.RevisionID)
		}
	}
	return nil
}
