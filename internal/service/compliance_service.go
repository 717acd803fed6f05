package service

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/entity"
	"github.com/spec-kit/compliance-service/internal/events"
	"github.com/spec-kit/compliance-service/internal/persistence"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/revision"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

// Ticket prefixes per kind.
const (
	PrefixAudit   = "AUD"
	PrefixIssue   = "ISS"
	PrefixPolicy  = "POL"
	PrefixRisk    = "RSK"
	PrefixControl = "CTL"
)

// ComplianceDependencies bundles everything the compliance modules share plus one record
// repository per kind.
type ComplianceDependencies struct {
	Tx         persistence.Transactor
	Registry   *workflow.Registry
	Tickets    entity.TicketIssuer
	Chain      *revision.Chain
	Events     repository.EventRepository
	Dispatcher events.Dispatcher
	Metrics    entity.Metrics
	Logger     *zap.Logger

	AuditRecords   repository.RecordRepository[domain.Audit]
	IssueRecords   repository.RecordRepository[domain.Issue]
	PolicyRecords  repository.RecordRepository[domain.Policy]
	RiskRecords    repository.RecordRepository[domain.Risk]
	ControlRecords repository.RecordRepository[domain.Control]
}

// ComplianceModules holds one entity module per record kind.
type ComplianceModules struct {
	Audits   *entity.Module[domain.Audit]
	Issues   *entity.Module[domain.Issue]
	Policies *entity.Module[domain.Policy]
	Risks    *entity.Module[domain.Risk]
	Controls *entity.Module[domain.Control]
}

// NewComplianceModules resolves each kind's template and builds its module.
func NewComplianceModules(deps ComplianceDependencies) (*ComplianceModules, error) {
	if deps.Registry == nil {
		deps.Registry = workflow.DefaultRegistry()
	}
	var (
		mods ComplianceModules
		err  error
	)
	if mods.Audits, err = build(deps, workflow.KindAudit, PrefixAudit, ValidateAudit, deps.AuditRecords); err != nil {
		return nil, err
	}
	if mods.Issues, err = build(deps, workflow.KindIssue, PrefixIssue, ValidateIssue, deps.IssueRecords); err != nil {
		return nil, err
	}
	if mods.Policies, err = build(deps, workflow.KindPolicy, PrefixPolicy, ValidatePolicy, deps.PolicyRecords); err != nil {
		return nil, err
	}
	if mods.Risks, err = build(deps, workflow.KindRisk, PrefixRisk, ValidateRisk, deps.RiskRecords); err != nil {
		return nil, err
	}
	if mods.Controls, err = build(deps, workflow.KindControl, PrefixControl, ValidateControl, deps.ControlRecords); err != nil {
		return nil, err
	}
	return &mods, nil
}

func build[B any](deps ComplianceDependencies, kind, prefix string, validate func(B) error, records repository.RecordRepository[B]) (*entity.Module[B], error) {
	tpl, err := deps.Registry.Resolve(kind)
	if err != nil {
		return nil, fmt.Errorf("compliance modules: %w", err)
	}
	return entity.New(entity.Config[B]{
		Kind:         kind,
		TicketPrefix: prefix,
		Template:     tpl,
		Validate:     validate,
	}, entity.Dependencies[B]{
		Tx:         deps.Tx,
		Records:    records,
		Events:     deps.Events,
		Tickets:    deps.Tickets,
		Chain:      deps.Chain,
		Dispatcher: deps.Dispatcher,
		Metrics:    deps.Metrics,
		Logger:     deps.Logger,
	})
}

var errTitleRequired = errors.New("title is required")

// ValidateAudit checks an audit body.
func ValidateAudit(a domain.Audit) error {
	if strings.TrimSpace(a.Title) == "" {
		return errTitleRequired
	}
	if a.StartsOn != nil && a.EndsOn != nil && a.EndsOn.Before(*a.StartsOn) {
		return errors.New("ends_on precedes starts_on")
	}
	return nil
}

// ValidateIssue checks an issue body.
func ValidateIssue(i domain.Issue) error {
	if strings.TrimSpace(i.Title) == "" {
		return errTitleRequired
	}
	switch i.Severity {
	case domain.IssueSeverityLow, domain.IssueSeverityMedium, domain.IssueSeverityHigh, domain.IssueSeverityCritical:
		return nil
	default:
		return fmt.Errorf("unknown severity %q", i.Severity)
	}
}

// ValidatePolicy checks a policy body.
func ValidatePolicy(p domain.Policy) error {
	if strings.TrimSpace(p.Title) == "" {
		return errTitleRequired
	}
	return nil
}

// ValidateRisk checks a risk body.
func ValidateRisk(r domain.Risk) error {
	if strings.TrimSpace(r.Title) == "" {
		return errTitleRequired
	}
	if r.Likelihood < 1 || r.Likelihood > 5 {
		return errors.New("likelihood must be between 1 and 5")
	}
	if r.Impact < 1 || r.Impact > 5 {
		return errors.New("impact must be between 1 and 5")
	}
	return nil
}

// ValidateControl checks a control body.
func ValidateControl(c domain.Control) error {
	if strings.TrimSpace(c.Title) == "" {
		return errTitleRequired
	}
	return nil
}
