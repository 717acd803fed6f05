package workflow

// Entity kinds with built-in templates.
const (
	KindAudit    = "audit"
	KindIssue    = "issue"
	KindPolicy   = "policy"
	KindRisk     = "risk"
	KindControl  = "control"
	KindApproval = "approval"
)

// AuditTemplate governs audit engagements.
func AuditTemplate() *Template {
	return &Template{
		EntityType: KindAudit,
		Initial:    "draft",
		Transitions: map[State]map[Event]State{
			"draft":     {"activate": "active", "archive": "archived"},
			"active":    {"complete": "completed", "archive": "archived"},
			"completed": {"archive": "archived"},
			"archived":  {},
		},
	}
}

// IssueTemplate governs findings and remediation items.
func IssueTemplate() *Template {
	return &Template{
		EntityType: KindIssue,
		Initial:    "open",
		Transitions: map[State]map[Event]State{
			"open":        {"start": "in_progress", "resolve": "resolved", "close": "closed"},
			"in_progress": {"resolve": "resolved", "close": "closed"},
			"resolved":    {"reopen": "open", "close": "closed"},
			"closed":      {"reopen": "open"},
		},
	}
}

// PolicyTemplate governs policy review and publication.
func PolicyTemplate() *Template {
	return &Template{
		EntityType: KindPolicy,
		Initial:    "draft",
		Transitions: map[State]map[Event]State{
			"draft":     {"submit": "in_review"},
			"in_review": {"approve": "published", "reject": "draft"},
			"published": {"retire": "retired", "revise": "draft"},
			"retired":   {},
		},
	}
}

// RiskTemplate governs risk register entries.
func RiskTemplate() *Template {
	return &Template{
		EntityType: KindRisk,
		Initial:    "identified",
		Transitions: map[State]map[Event]State{
			"identified": {"assess": "assessed", "close": "closed"},
			"assessed":   {"mitigate": "mitigating", "accept": "accepted", "close": "closed"},
			"mitigating": {"close": "closed"},
			"accepted":   {"reopen": "identified", "close": "closed"},
			"closed":     {"reopen": "identified"},
		},
	}
}

// ControlTemplate governs control implementation and testing.
func ControlTemplate() *Template {
	return &Template{
		EntityType: KindControl,
		Initial:    "draft",
		Transitions: map[State]map[Event]State{
			"draft":       {"implement": "implemented", "retire": "retired"},
			"implemented": {"test": "effective", "fail": "ineffective", "retire": "retired"},
			"effective":   {"fail": "ineffective", "retire": "retired"},
			"ineffective": {"remediate": "implemented", "retire": "retired"},
			"retired":     {},
		},
	}
}

// ApprovalTemplate is the generic standalone workflow used by persisted workflow records.
func ApprovalTemplate() *Template {
	return &Template{
		EntityType: KindApproval,
		Initial:    "pending",
		Transitions: map[State]map[Event]State{
			"pending":   {"approve": "approved", "reject": "rejected", "cancel": "cancelled"},
			"approved":  {},
			"rejected":  {"reopen": "pending"},
			"cancelled": {},
		},
	}
}

// DefaultRegistry returns a registry holding every built-in template.
func DefaultRegistry() *Registry {
	return NewRegistry().MustRegister(
		AuditTemplate(),
		IssueTemplate(),
		PolicyTemplate(),
		RiskTemplate(),
		ControlTemplate(),
		ApprovalTemplate(),
	)
}
