package domain

import "time"

// Revision carries the ownership and mutation markers embedded in every tenant-owned record.
// RevisionID changes on every create, update and soft delete.
type Revision struct {
	TenantID   string
	RevisionID string
	CreatedAt  time.Time
	CreatedBy  string
	UpdatedAt  time.Time
	UpdatedBy  string
	DeletedAt  *time.Time
	DeletedBy  *string
}

// Deleted reports whether the record has been soft-deleted.
func (r Revision) Deleted() bool {
	return r.DeletedAt != nil
}
