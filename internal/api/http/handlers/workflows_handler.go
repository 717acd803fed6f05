package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/compliance-service/internal/api/dto"
	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/revision"
	"github.com/spec-kit/compliance-service/internal/service"
	apperrors "github.com/spec-kit/compliance-service/pkg/util"
)

// WorkflowsHandler serves persisted workflows and the tenant activity feed.
type WorkflowsHandler struct {
	workflows *service.WorkflowService
	activity  *service.ActivityService
}

// NewWorkflowsHandler constructs handler.
func NewWorkflowsHandler(workflows *service.WorkflowService, activity *service.ActivityService) *WorkflowsHandler {
	return &WorkflowsHandler{workflows: workflows, activity: activity}
}

// Start POST /workflows.
func (h *WorkflowsHandler) Start(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.StartWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	wf, err := h.workflows.Start(c.UserContext(), actor, service.StartWorkflowInput{
		Kind:        req.Kind,
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
	})
	if err != nil {
		return err
	}
	setETag(c, wf.RevisionID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.response(wf)})
}

// List GET /workflows?subject_type=&subject_id=.
func (h *WorkflowsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	subjectType, subjectID := c.Query("subject_type"), c.Query("subject_id")
	if subjectType == "" || subjectID == "" {
		return apperrors.NewValidationError("subject_type and subject_id required", nil)
	}
	wfs, err := h.workflows.ForSubject(c.UserContext(), actor, subjectType, subjectID)
	if err != nil {
		return err
	}
	items := make([]dto.WorkflowResponse, 0, len(wfs))
	for i := range wfs {
		items = append(items, h.response(&wfs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /workflows/:id.
func (h *WorkflowsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	wf, err := h.workflows.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	setETag(c, wf.RevisionID)
	return c.JSON(fiber.Map{"data": h.response(wf)})
}

// Transition POST /workflows/:id/transitions.
func (h *WorkflowsHandler) Transition(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil || req.Event == "" {
		return apperrors.NewValidationError("event required", nil)
	}
	wf, err := h.workflows.Transition(c.UserContext(), actor, c.Params("id"), req.Event, expectedRevision(c))
	if err != nil {
		return err
	}
	setETag(c, wf.RevisionID)
	return c.JSON(fiber.Map{"data": h.response(wf)})
}

// History GET /workflows/:id/events.
func (h *WorkflowsHandler) History(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	events, err := h.workflows.History(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HistoryResponse{
		Events:     dto.NewEventResponses(events),
		ChainValid: revision.VerifyChain(events) == nil,
	}})
}

// Activity GET /events?entity_type=&since=&page=&page_size=.
func (h *WorkflowsHandler) Activity(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := repository.EventFilter{Since: parseTime(c.Query("since"))}
	if entityType := c.Query("entity_type"); entityType != "" {
		filter.EntityType = &entityType
	}
	filter.Limit, filter.Offset = pageBounds(c)
	events, err := h.activity.Feed(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventResponses(events)})
}

func (h *WorkflowsHandler) response(wf *domain.Workflow) dto.WorkflowResponse {
	return dto.NewWorkflowResponse(wf, h.workflows.Events(wf))
}
