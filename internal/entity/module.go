// Package entity composes the ticket sequencer, the workflow engine and the revision chain
// around one business record kind. Every mutation reads the record under a row lock, stamps a
// fresh revision, writes the record and appends the paired audit event in one transaction.
package entity

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/events"
	"github.com/spec-kit/compliance-service/internal/ident"
	"github.com/spec-kit/compliance-service/internal/persistence"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/revision"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

// TicketIssuer hands out tickets at creation time.
type TicketIssuer interface {
	Next(ctx context.Context, tenantID, prefix string) (string, error)
}

// Metrics records module outcomes.
type Metrics interface {
	RecordTransition(entityType string, accepted bool)
	RecordEventAppended(name string)
}

// Config describes one entity kind.
type Config[B any] struct {
	Kind         string
	TicketPrefix string
	Template     *workflow.Template
	Validate     func(B) error
}

// Dependencies bundles collaborators for a module.
type Dependencies[B any] struct {
	Tx         persistence.Transactor
	Records    repository.RecordRepository[B]
	Events     repository.EventRepository
	Tickets    TicketIssuer
	Chain      *revision.Chain
	IDs        ident.Generator
	Dispatcher events.Dispatcher
	Metrics    Metrics
	Logger     *zap.Logger
}

// Module implements create/get/list/update/transition/remove for one kind.
type Module[B any] struct {
	cfg        Config[B]
	tx         persistence.Transactor
	records    repository.RecordRepository[B]
	events     repository.EventRepository
	tickets    TicketIssuer
	chain      *revision.Chain
	ids        ident.Generator
	dispatcher events.Dispatcher
	metrics    Metrics
	logger     *zap.Logger
	tracer     trace.Tracer
}

// New validates cfg and builds the module.
func New[B any](cfg Config[B], deps Dependencies[B]) (*Module[B], error) {
	if cfg.Kind == "" || cfg.TicketPrefix == "" {
		return nil, fmt.Errorf("entity: kind and ticket prefix are required")
	}
	if err := cfg.Template.Validate(); err != nil {
		return nil, fmt.Errorf("entity %s: %w", cfg.Kind, err)
	}
	if cfg.Template.EntityType != cfg.Kind {
		return nil, fmt.Errorf("entity %s: %w", cfg.Kind, &workflow.Error{
			Kind:       workflow.ErrInvalidTemplate,
			EntityType: cfg.Template.EntityType,
			Reason:     "template belongs to another kind",
		})
	}
	if deps.Tx == nil || deps.Records == nil || deps.Events == nil || deps.Tickets == nil {
		return nil, fmt.Errorf("entity %s: transactor, records, events and tickets are required", cfg.Kind)
	}
	m := &Module[B]{
		cfg:        cfg,
		tx:         deps.Tx,
		records:    deps.Records,
		events:     deps.Events,
		tickets:    deps.Tickets,
		chain:      deps.Chain,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		tracer:     otel.Tracer("compliance-service/entity"),
	}
	if m.chain == nil {
		m.chain = revision.NewChain(nil, nil)
	}
	if m.ids == nil {
		m.ids = ident.UUIDGenerator{}
	}
	if m.metrics == nil {
		m.metrics = noopMetrics{}
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m, nil
}

// Kind returns the entity kind.
func (m *Module[B]) Kind() string {
	return m.cfg.Kind
}

// Template returns the lifecycle template.
func (m *Module[B]) Template() *workflow.Template {
	return m.cfg.Template
}

// Create issues a ticket, starts the lifecycle at its initial state and records the creation event.
func (m *Module[B]) Create(ctx context.Context, actor domain.Actor, body B) (*domain.Record[B], error) {
	if !actor.Valid() {
		return nil, ErrInvalidActor
	}
	if err := m.validate(body); err != nil {
		return nil, err
	}
	ctx, span := m.startSpan(ctx, "create", actor)
	defer span.End()

	var (
		rec   *domain.Record[B]
		event domain.DomainEvent
	)
	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := m.tickets.Next(ctx, actor.TenantID, m.cfg.TicketPrefix)
		if err != nil {
			return fmt.Errorf("issue ticket: %w", err)
		}
		inst, err := workflow.Instantiate(m.cfg.Template, "")
		if err != nil {
			return err
		}
		rec = &domain.Record[B]{
			ID:         m.ids.NewID(),
			EntityType: m.cfg.Kind,
			Ticket:     ticket,
			State:      string(inst.State()),
			Body:       body,
		}
		before := m.chain.Begin(actor).Apply(&rec.Revision)
		if err := m.records.Insert(ctx, rec); err != nil {
			return err
		}
		event = m.chain.Describe(actor, m.cfg.Kind, rec.ID, domain.EventName(m.cfg.Kind, domain.ActionCreated), before, rec.RevisionID)
		return m.events.Append(ctx, &event)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	m.committed(ctx, event)
	return rec, nil
}

// Get returns a live record.
func (m *Module[B]) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Record[B], error) {
	rec, err := m.records.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, storeError(err)
	}
	if rec.Deleted() {
		return nil, ErrNotFound
	}
	return rec, nil
}

// GetByTicket returns a live record by its ticket.
func (m *Module[B]) GetByTicket(ctx context.Context, actor domain.Actor, ticket string) (*domain.Record[B], error) {
	rec, err := m.records.GetByTicket(ctx, actor.TenantID, ticket)
	if err != nil {
		return nil, storeError(err)
	}
	if rec.Deleted() {
		return nil, ErrNotFound
	}
	return rec, nil
}

// List returns live records of the actor's tenant.
func (m *Module[B]) List(ctx context.Context, actor domain.Actor, filter repository.RecordFilter) ([]domain.Record[B], error) {
	filter.IncludeDeleted = false
	return m.records.List(ctx, actor.TenantID, filter)
}

// Update applies edit to the body. A non-empty expectedRevision must match the stored revision.
func (m *Module[B]) Update(ctx context.Context, actor domain.Actor, id, expectedRevision string, edit func(*B) error) (*domain.Record[B], error) {
	return m.mutate(ctx, actor, id, expectedRevision, domain.ActionUpdated, func(rec *domain.Record[B]) (revision.Stamp, error) {
		body := rec.Body
		if err := edit(&body); err != nil {
			return revision.Stamp{}, err
		}
		if err := m.validate(body); err != nil {
			return revision.Stamp{}, err
		}
		rec.Body = body
		return m.chain.Advance(actor), nil
	})
}

// Transition moves the record's lifecycle state by event.
func (m *Module[B]) Transition(ctx context.Context, actor domain.Actor, id, expectedRevision string, event workflow.Event) (*domain.Record[B], error) {
	return m.mutate(ctx, actor, id, expectedRevision, domain.ActionTransitioned, func(rec *domain.Record[B]) (revision.Stamp, error) {
		inst, err := workflow.Instantiate(m.cfg.Template, workflow.State(rec.State))
		if err != nil {
			m.logger.Error("stored state not in template",
				zap.String("entity_type", m.cfg.Kind),
				zap.String("entity_id", rec.ID),
				zap.String("state", rec.State))
			return revision.Stamp{}, err
		}
		next, err := inst.Transition(event)
		m.metrics.RecordTransition(m.cfg.Kind, err == nil)
		if err != nil {
			return revision.Stamp{}, err
		}
		rec.State = string(next.State())
		return m.chain.Advance(actor), nil
	})
}

// Remove soft-deletes the record.
func (m *Module[B]) Remove(ctx context.Context, actor domain.Actor, id, expectedRevision string) (*domain.Record[B], error) {
	return m.mutate(ctx, actor, id, expectedRevision, domain.ActionDeleted, func(*domain.Record[B]) (revision.Stamp, error) {
		return m.chain.Retire(actor), nil
	})
}

// History returns the record's audit events in order, including after soft delete.
func (m *Module[B]) History(ctx context.Context, actor domain.Actor, id string) ([]domain.DomainEvent, error) {
	if _, err := m.records.Get(ctx, actor.TenantID, id); err != nil {
		return nil, storeError(err)
	}
	return m.events.ListByEntity(ctx, actor.TenantID, m.cfg.Kind, id)
}

// Events lists the lifecycle events accepted from the record's current state.
func (m *Module[B]) Events(rec *domain.Record[B]) []workflow.Event {
	inst, err := workflow.Instantiate(m.cfg.Template, workflow.State(rec.State))
	if err != nil {
		return nil
	}
	return inst.Events()
}

type mutation[B any] func(rec *domain.Record[B]) (revision.Stamp, error)

func (m *Module[B]) mutate(ctx context.Context, actor domain.Actor, id, expectedRevision string, action domain.EventAction, apply mutation[B]) (*domain.Record[B], error) {
	if !actor.Valid() {
		return nil, ErrInvalidActor
	}
	ctx, span := m.startSpan(ctx, string(action), actor)
	defer span.End()

	var (
		rec   *domain.Record[B]
		event domain.DomainEvent
	)
	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = m.records.GetForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return storeError(err)
		}
		if rec.Deleted() {
			return ErrNotFound
		}
		if expectedRevision != "" && expectedRevision != rec.RevisionID {
			return ErrStaleRevision
		}
		prev := rec.RevisionID
		stamp, err := apply(rec)
		if err != nil {
			return err
		}
		before := stamp.Apply(&rec.Revision)
		if err := m.records.Update(ctx, rec, prev); err != nil {
			return storeError(err)
		}
		event = m.chain.Describe(actor, m.cfg.Kind, rec.ID, domain.EventName(m.cfg.Kind, action), before, rec.RevisionID)
		return m.events.Append(ctx, &event)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	m.committed(ctx, event)
	return rec, nil
}

func (m *Module[B]) validate(body B) error {
	if m.cfg.Validate == nil {
		return nil
	}
	if err := m.cfg.Validate(body); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (m *Module[B]) committed(ctx context.Context, event domain.DomainEvent) {
	m.metrics.RecordEventAppended(event.Name)
	if m.dispatcher == nil {
		return
	}
	if err := m.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		m.logger.Warn("event fan-out failed",
			zap.String("event_id", event.ID),
			zap.String("name", event.Name),
			zap.Error(err))
	}
}

func (m *Module[B]) startSpan(ctx context.Context, op string, actor domain.Actor) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, m.cfg.Kind+"."+op, trace.WithAttributes(
		attribute.String("tenant_id", actor.TenantID),
		attribute.String("entity_type", m.cfg.Kind),
	))
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrRevisionMismatch):
		return ErrStaleRevision
	default:
		return err
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordTransition(string, bool) {}
func (noopMetrics) RecordEventAppended(string)    {}
