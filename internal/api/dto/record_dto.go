package dto

import (
	"time"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

// RecordResponse is the API shape of a compliance record.
type RecordResponse[B any] struct {
	ID         string           `json:"id"`
	EntityType string           `json:"entity_type"`
	Ticket     string           `json:"ticket"`
	State      string           `json:"state"`
	Events     []workflow.Event `json:"available_events"`
	Body       B                `json:"body"`
	RevisionID string           `json:"revision_id"`
	CreatedAt  time.Time        `json:"created_at"`
	CreatedBy  string           `json:"created_by"`
	UpdatedAt  time.Time        `json:"updated_at"`
	UpdatedBy  string           `json:"updated_by"`
}

// NewRecordResponse maps a record and its accepted events.
func NewRecordResponse[B any](rec *domain.Record[B], events []workflow.Event) RecordResponse[B] {
	if events == nil {
		events = []workflow.Event{}
	}
	return RecordResponse[B]{
		ID:         rec.ID,
		EntityType: rec.EntityType,
		Ticket:     rec.Ticket,
		State:      rec.State,
		Events:     events,
		Body:       rec.Body,
		RevisionID: rec.RevisionID,
		CreatedAt:  rec.CreatedAt,
		CreatedBy:  rec.CreatedBy,
		UpdatedAt:  rec.UpdatedAt,
		UpdatedBy:  rec.UpdatedBy,
	}
}

// TransitionRequest payload.
type TransitionRequest struct {
	Event workflow.Event `json:"event"`
}

// EventResponse is one audit event.
type EventResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ActorID          string    `json:"actor_id"`
	EntityType       string    `json:"entity_type"`
	EntityID         string    `json:"entity_id"`
	RevisionIDBefore *string   `json:"revision_id_before"`
	RevisionID       string    `json:"revision_id"`
	Timestamp        time.Time `json:"timestamp"`
}

// HistoryResponse is an entity's event chain.
type HistoryResponse struct {
	Events     []EventResponse `json:"events"`
	ChainValid bool            `json:"chain_valid"`
}

// NewEventResponses maps audit events.
func NewEventResponses(events []domain.DomainEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			ID:               e.ID,
			Name:             e.Name,
			ActorID:          e.ActorID,
			EntityType:       e.EntityType,
			EntityID:         e.EntityID,
			RevisionIDBefore: e.RevisionIDBefore,
			RevisionID:       e.RevisionID,
			Timestamp:        e.Timestamp,
		})
	}
	return out
}
