package domain

import "time"

// Audit is an engagement assessing a framework's controls over a period.
type Audit struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	FrameworkID string     `json:"framework_id,omitempty"`
	Auditor     string     `json:"auditor,omitempty"`
	StartsOn    *time.Time `json:"starts_on,omitempty"`
	EndsOn      *time.Time `json:"ends_on,omitempty"`
}

// IssueSeverity grades remediation urgency.
type IssueSeverity string

const (
	IssueSeverityLow      IssueSeverity = "low"
	IssueSeverityMedium   IssueSeverity = "medium"
	IssueSeverityHigh     IssueSeverity = "high"
	IssueSeverityCritical IssueSeverity = "critical"
)

// Issue is a finding or gap that needs remediation.
type Issue struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Severity    IssueSeverity `json:"severity"`
	AuditID     string        `json:"audit_id,omitempty"`
	AssigneeID  string        `json:"assignee_id,omitempty"`
	DueOn       *time.Time    `json:"due_on,omitempty"`
}

// Policy is a governed document with its own review lifecycle.
type Policy struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Version string `json:"version,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
}

// Risk is a scored entry in the risk register. Likelihood and Impact range 1..5.
type Risk struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Likelihood  int    `json:"likelihood"`
	Impact      int    `json:"impact"`
	OwnerID     string `json:"owner_id,omitempty"`
}

// Score is likelihood times impact.
func (r Risk) Score() int {
	return r.Likelihood * r.Impact
}

// Control is a safeguard mapped to a framework requirement.
type Control struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FrameworkID string `json:"framework_id,omitempty"`
	Reference   string `json:"reference,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
}
