package domain

import "time"

// EventAction enumerates the mutation suffixes used in event names.
type EventAction string

const (
	ActionCreated      EventAction = "created"
	ActionUpdated      EventAction = "updated"
	ActionTransitioned EventAction = "transitioned"
	ActionDeleted      EventAction = "deleted"
)

// EventName builds names such as "issue.updated".
func EventName(entityType string, action EventAction) string {
	return entityType + "." + string(action)
}

// DomainEvent is an immutable audit entry linking the revision before a mutation to the one after it.
// RevisionIDBefore is nil only for the creation event.
type DomainEvent struct {
	ID               string
	Seq              int64
	Name             string
	ActorID          string
	TenantID         string
	Timestamp        time.Time
	RevisionIDBefore *string
	RevisionID       string
	EntityType       string
	EntityID         string
}
