package domain

// Actor identifies the tenant member performing a mutation.
type Actor struct {
	TenantID string
	MemberID string
}

// Valid reports whether both tenant and member are present.
func (a Actor) Valid() bool {
	return a.TenantID != "" && a.MemberID != ""
}
