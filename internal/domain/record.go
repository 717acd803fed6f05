package domain

// Record is the stored shape of a business entity: identity, ticket, lifecycle state,
// revision markers and a kind-specific body.
type Record[B any] struct {
	ID         string
	EntityType string
	Ticket     string
	State      string
	Body       B
	Revision
}
