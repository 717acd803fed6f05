package dto

import (
	"time"

	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

// StartWorkflowRequest payload.
type StartWorkflowRequest struct {
	Kind        string `json:"kind"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
}

// WorkflowResponse is the API shape of a persisted workflow.
type WorkflowResponse struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	SubjectType string           `json:"subject_type"`
	SubjectID   string           `json:"subject_id"`
	State       string           `json:"state"`
	Events      []workflow.Event `json:"available_events"`
	RevisionID  string           `json:"revision_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewWorkflowResponse maps a workflow and its accepted events.
func NewWorkflowResponse(wf *domain.Workflow, events []workflow.Event) WorkflowResponse {
	if events == nil {
		events = []workflow.Event{}
	}
	return WorkflowResponse{
		ID:          wf.ID,
		Kind:        wf.Kind,
		SubjectType: wf.SubjectType,
		SubjectID:   wf.SubjectID,
		State:       wf.State,
		Events:      events,
		RevisionID:  wf.RevisionID,
		CreatedAt:   wf.CreatedAt,
		UpdatedAt:   wf.UpdatedAt,
	}
}
