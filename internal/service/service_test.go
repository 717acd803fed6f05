package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/entity"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/repository/memory"
	"github.com/spec-kit/compliance-service/internal/revision"
	"github.com/spec-kit/compliance-service/internal/sequence"
	"github.com/spec-kit/compliance-service/internal/service"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

var actor = domain.Actor{TenantID: "org_1", MemberID: "mem_1"}

type fixture struct {
	events    *memory.EventStore
	modules   *service.ComplianceModules
	workflows *service.WorkflowService
	activity  *service.ActivityService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tx := memory.NewTransactor()
	events := memory.NewEventStore()
	modules, err := service.NewComplianceModules(service.ComplianceDependencies{
		Tx:             tx,
		Tickets:        sequence.NewSequencer(tx, memory.NewTicketCounterStore(), nil),
		Events:         events,
		AuditRecords:   memory.NewRecordStore[domain.Audit](workflow.KindAudit),
		IssueRecords:   memory.NewRecordStore[domain.Issue](workflow.KindIssue),
		PolicyRecords:  memory.NewRecordStore[domain.Policy](workflow.KindPolicy),
		RiskRecords:    memory.NewRecordStore[domain.Risk](workflow.KindRisk),
		ControlRecords: memory.NewRecordStore[domain.Control](workflow.KindControl),
	})
	require.NoError(t, err)
	return fixture{
		events:  events,
		modules: modules,
		workflows: service.NewWorkflowService(service.WorkflowDependencies{
			Tx:           tx,
			WorkflowRepo: memory.NewWorkflowStore(),
			EventRepo:    events,
		}),
		activity: service.NewActivityService(events),
	}
}

func TestIssueScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue, err := f.modules.Issues.Create(ctx, actor, domain.Issue{Title: "MFA gap", Severity: domain.IssueSeverityHigh})
	require.NoError(t, err)
	assert.Equal(t, "ISS-1", issue.Ticket)
	assert.Equal(t, "open", issue.State)

	for _, step := range []struct {
		event workflow.Event
		state string
	}{
		{"start", "in_progress"},
		{"resolve", "resolved"},
		{"close", "closed"},
		{"reopen", "open"},
	} {
		issue, err = f.modules.Issues.Transition(ctx, actor, issue.ID, issue.RevisionID, step.event)
		require.NoError(t, err, step.event)
		assert.Equal(t, step.state, issue.State)
	}

	_, err = f.modules.Issues.Transition(ctx, actor, issue.ID, "", "reopen")
	require.ErrorIs(t, err, workflow.ErrInvalidEvent)

	history, err := f.modules.Issues.History(ctx, actor, issue.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.NoError(t, revision.VerifyChain(history))
}

func TestPrefixesAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	audit, err := f.modules.Audits.Create(ctx, actor, domain.Audit{Title: "SOC 2"})
	require.NoError(t, err)
	risk, err := f.modules.Risks.Create(ctx, actor, domain.Risk{Title: "Vendor lock-in", Likelihood: 3, Impact: 4})
	require.NoError(t, err)
	policy, err := f.modules.Policies.Create(ctx, actor, domain.Policy{Title: "Access control"})
	require.NoError(t, err)
	control, err := f.modules.Controls.Create(ctx, actor, domain.Control{Title: "Quarterly access review"})
	require.NoError(t, err)
	second, err := f.modules.Audits.Create(ctx, actor, domain.Audit{Title: "ISO 27001"})
	require.NoError(t, err)

	assert.Equal(t, "AUD-1", audit.Ticket)
	assert.Equal(t, "RSK-1", risk.Ticket)
	assert.Equal(t, "identified", risk.State)
	assert.Equal(t, "POL-1", policy.Ticket)
	assert.Equal(t, "CTL-1", control.Ticket)
	assert.Equal(t, "AUD-2", second.Ticket)

	feed, err := f.activity.Feed(ctx, actor, repository.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, feed, 5)
}

func TestValidators(t *testing.T) {
	assert.Error(t, service.ValidateAudit(domain.Audit{}))
	assert.Error(t, service.ValidateIssue(domain.Issue{Title: "x", Severity: "urgent"}))
	assert.NoError(t, service.ValidateIssue(domain.Issue{Title: "x", Severity: domain.IssueSeverityLow}))
	assert.Error(t, service.ValidateRisk(domain.Risk{Title: "x", Likelihood: 0, Impact: 3}))
	assert.Error(t, service.ValidateRisk(domain.Risk{Title: "x", Likelihood: 2, Impact: 6}))
	assert.NoError(t, service.ValidateRisk(domain.Risk{Title: "x", Likelihood: 5, Impact: 5}))
	assert.Error(t, service.ValidatePolicy(domain.Policy{Title: " "}))
	assert.NoError(t, service.ValidateControl(domain.Control{Title: "c"}))

	f := newFixture(t)
	_, err := f.modules.Risks.Create(context.Background(), actor, domain.Risk{Title: "bad"})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestNewComplianceModulesRequiresTemplates(t *testing.T) {
	tx := memory.NewTransactor()
	_, err := service.NewComplianceModules(service.ComplianceDependencies{
		Tx:       tx,
		Registry: workflow.NewRegistry().MustRegister(workflow.AuditTemplate()),
		Tickets:  sequence.NewSequencer(tx, memory.NewTicketCounterStore(), nil),
		Events:   memory.NewEventStore(),

		AuditRecords: memory.NewRecordStore[domain.Audit](workflow.KindAudit),
		IssueRecords: memory.NewRecordStore[domain.Issue](workflow.KindIssue),
	})
	require.ErrorIs(t, err, workflow.ErrInvalidTemplate)
}

func TestWorkflowService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf, err := f.workflows.Start(ctx, actor, service.StartWorkflowInput{
		Kind:        workflow.KindApproval,
		SubjectType: workflow.KindPolicy,
		SubjectID:   "pol-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", wf.State)
	assert.Equal(t, []workflow.Event{"approve", "cancel", "reject"}, f.workflows.Events(wf))

	_, err = f.workflows.Transition(ctx, actor, wf.ID, "approve", "stale-revision")
	require.ErrorIs(t, err, entity.ErrStaleRevision)

	rejected, err := f.workflows.Transition(ctx, actor, wf.ID, "reject", wf.RevisionID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.State)

	_, err = f.workflows.Transition(ctx, actor, wf.ID, "approve", "")
	require.ErrorIs(t, err, workflow.ErrInvalidEvent)

	reopened, err := f.workflows.Transition(ctx, actor, wf.ID, "reopen", "")
	require.NoError(t, err)
	assert.Equal(t, "pending", reopened.State)

	history, err := f.workflows.History(ctx, actor, wf.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "workflow.created", history[0].Name)
	assert.Equal(t, "workflow.transitioned", history[2].Name)
	assert.NoError(t, revision.VerifyChain(history))

	attached, err := f.workflows.ForSubject(ctx, actor, workflow.KindPolicy, "pol-1")
	require.NoError(t, err)
	require.Len(t, attached, 1)

	_, err = f.workflows.Get(ctx, domain.Actor{TenantID: "org_2", MemberID: "m"}, wf.ID)
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestWorkflowServiceRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflows.Start(context.Background(), actor, service.StartWorkflowInput{
		Kind:        "procurement",
		SubjectType: "vendor",
		SubjectID:   "v-1",
	})
	require.ErrorIs(t, err, workflow.ErrInvalidTemplate)
}
