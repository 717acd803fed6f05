package domain

// Workflow is a standalone lifecycle record whose state lives in its own row
// and is referenced by id from the subject it governs.
type Workflow struct {
	ID          string
	Kind        string
	SubjectType string
	SubjectID   string
	State       string
	Revision
}
