package entity

import "errors"

var (
	// ErrNotFound is returned for missing, foreign-tenant or soft-deleted records.
	ErrNotFound = errors.New("record not found")
	// ErrStaleRevision means the caller's expected revision no longer matches the stored one.
	ErrStaleRevision = errors.New("stale revision")
	// ErrValidation wraps body validation failures.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidActor means the mutation has no tenant or member.
	ErrInvalidActor = errors.New("actor requires tenant and member")
)
