package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/entity"
	"github.com/spec-kit/compliance-service/internal/events"
	"github.com/spec-kit/compliance-service/internal/ident"
	"github.com/spec-kit/compliance-service/internal/persistence"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/revision"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

// WorkflowEntityType names persisted workflows in the event log.
const WorkflowEntityType = "workflow"

// WorkflowService runs standalone workflows whose state is stored in its own row.
type WorkflowService struct {
	tx         persistence.Transactor
	registry   *workflow.Registry
	workflows  repository.WorkflowRepository
	events     repository.EventRepository
	chain      *revision.Chain
	ids        ident.Generator
	dispatcher events.Dispatcher
	metrics    entity.Metrics
	logger     *zap.Logger
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	Tx           persistence.Transactor
	Registry     *workflow.Registry
	WorkflowRepo repository.WorkflowRepository
	EventRepo    repository.EventRepository
	Chain        *revision.Chain
	IDs          ident.Generator
	Dispatcher   events.Dispatcher
	Metrics      entity.Metrics
	Logger       *zap.Logger
}

// StartWorkflowInput describes a new workflow.
type StartWorkflowInput struct {
	Kind        string
	SubjectType string
	SubjectID   string
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	svc := &WorkflowService{
		tx:         deps.Tx,
		registry:   deps.Registry,
		workflows:  deps.WorkflowRepo,
		events:     deps.EventRepo,
		chain:      deps.Chain,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	if svc.registry == nil {
		svc.registry = workflow.DefaultRegistry()
	}
	if svc.chain == nil {
		svc.chain = revision.NewChain(nil, nil)
	}
	if svc.ids == nil {
		svc.ids = ident.UUIDGenerator{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// Start creates a workflow of the given kind at its template's initial state.
func (s *WorkflowService) Start(ctx context.Context, actor domain.Actor, input StartWorkflowInput) (*domain.Workflow, error) {
	if !actor.Valid() {
		return nil, entity.ErrInvalidActor
	}
	if strings.TrimSpace(input.SubjectType) == "" || strings.TrimSpace(input.SubjectID) == "" {
		return nil, fmt.Errorf("%w: subject type and id are required", entity.ErrValidation)
	}
	tpl, err := s.registry.Resolve(input.Kind)
	if err != nil {
		return nil, err
	}
	inst, err := workflow.Instantiate(tpl, "")
	if err != nil {
		return nil, err
	}

	wf := &domain.Workflow{
		ID:          s.ids.NewID(),
		Kind:        input.Kind,
		SubjectType: input.SubjectType,
		SubjectID:   input.SubjectID,
		State:       string(inst.State()),
	}
	var event domain.DomainEvent
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		before := s.chain.Begin(actor).Apply(&wf.Revision)
		if err := s.workflows.Create(ctx, wf); err != nil {
			return err
		}
		event = s.chain.Describe(actor, WorkflowEntityType, wf.ID,
			domain.EventName(WorkflowEntityType, domain.ActionCreated), before, wf.RevisionID)
		return s.events.Append(ctx, &event)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event)
	return wf, nil
}

// Get returns a workflow of the actor's tenant.
func (s *WorkflowService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Workflow, error) {
	wf, err := s.workflows.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return wf, nil
}

// ForSubject lists the workflows attached to a subject.
func (s *WorkflowService) ForSubject(ctx context.Context, actor domain.Actor, subjectType, subjectID string) ([]domain.Workflow, error) {
	return s.workflows.ListBySubject(ctx, actor.TenantID, subjectType, subjectID)
}

// Transition applies event to the stored state. A non-empty expectedRevision must match.
func (s *WorkflowService) Transition(ctx context.Context, actor domain.Actor, id string, event workflow.Event, expectedRevision string) (*domain.Workflow, error) {
	if !actor.Valid() {
		return nil, entity.ErrInvalidActor
	}
	var (
		wf       *domain.Workflow
		appended domain.DomainEvent
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		wf, err = s.workflows.GetForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return notFound(err)
		}
		if expectedRevision != "" && expectedRevision != wf.RevisionID {
			return entity.ErrStaleRevision
		}
		tpl, err := s.registry.Resolve(wf.Kind)
		if err != nil {
			return err
		}
		inst, err := workflow.Instantiate(tpl, workflow.State(wf.State))
		if err != nil {
			s.logger.Error("stored workflow state not in template",
				zap.String("workflow_id", wf.ID),
				zap.String("kind", wf.Kind),
				zap.String("state", wf.State))
			return err
		}
		next, err := inst.Transition(event)
		if s.metrics != nil {
			s.metrics.RecordTransition(WorkflowEntityType, err == nil)
		}
		if err != nil {
			return err
		}

		prev := wf.RevisionID
		wf.State = string(next.State())
		before := s.chain.Advance(actor).Apply(&wf.Revision)
		if err := s.workflows.Update(ctx, wf, prev); err != nil {
			if errors.Is(err, repository.ErrRevisionMismatch) {
				return entity.ErrStaleRevision
			}
			return err
		}
		appended = s.chain.Describe(actor, WorkflowEntityType, wf.ID,
			domain.EventName(WorkflowEntityType, domain.ActionTransitioned), before, wf.RevisionID)
		return s.events.Append(ctx, &appended)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, appended)
	return wf, nil
}

// Events lists the events accepted from the workflow's current state.
func (s *WorkflowService) Events(wf *domain.Workflow) []workflow.Event {
	tpl, err := s.registry.Resolve(wf.Kind)
	if err != nil {
		return nil
	}
	inst, err := workflow.Instantiate(tpl, workflow.State(wf.State))
	if err != nil {
		return nil
	}
	return inst.Events()
}

// History returns the workflow's audit events in order.
func (s *WorkflowService) History(ctx context.Context, actor domain.Actor, id string) ([]domain.DomainEvent, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.events.ListByEntity(ctx, actor.TenantID, WorkflowEntityType, id)
}

func (s *WorkflowService) publish(ctx context.Context, event domain.DomainEvent) {
	if s.metrics != nil {
		s.metrics.RecordEventAppended(event.Name)
	}
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("event fan-out failed", zap.String("event_id", event.ID), zap.String("name", event.Name), zap.Error(err))
	}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return entity.ErrNotFound
	}
	return err
}
