package handlers

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/compliance-service/internal/api/dto"
	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/entity"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/revision"
	apperrors "github.com/spec-kit/compliance-service/pkg/util"
)

// RecordsHandler serves one compliance record kind.
type RecordsHandler[B any] struct {
	module *entity.Module[B]
}

// NewRecordsHandler constructs handler.
func NewRecordsHandler[B any](module *entity.Module[B]) *RecordsHandler[B] {
	return &RecordsHandler[B]{module: module}
}

// Create POST /.
func (h *RecordsHandler[B]) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var body B
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rec, err := h.module.Create(c.UserContext(), actor, body)
	if err != nil {
		return err
	}
	setETag(c, rec.RevisionID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.response(rec)})
}

// List GET /?state=a,b&q=&page=&page_size=.
func (h *RecordsHandler[B]) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := repository.RecordFilter{States: splitList(c.Query("state"))}
	if q := c.Query("q"); q != "" {
		filter.SearchTerm = &q
	}
	filter.Limit, filter.Offset = pageBounds(c)

	recs, err := h.module.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.RecordResponse[B], 0, len(recs))
	for i := range recs {
		items = append(items, h.response(&recs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /:id.
func (h *RecordsHandler[B]) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rec, err := h.module.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	setETag(c, rec.RevisionID)
	return c.JSON(fiber.Map{"data": h.response(rec)})
}

// Update PATCH /:id merges the JSON payload into the stored body.
func (h *RecordsHandler[B]) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	payload := c.Body()
	if !sonic.Valid(payload) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rec, err := h.module.Update(c.UserContext(), actor, c.Params("id"), expectedRevision(c), func(body *B) error {
		if err := sonic.Unmarshal(payload, body); err != nil {
			return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
		}
		return nil
	})
	if err != nil {
		return err
	}
	setETag(c, rec.RevisionID)
	return c.JSON(fiber.Map{"data": h.response(rec)})
}

// Transition POST /:id/transitions.
func (h *RecordsHandler[B]) Transition(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil || req.Event == "" {
		return apperrors.NewValidationError("event required", nil)
	}
	rec, err := h.module.Transition(c.UserContext(), actor, c.Params("id"), expectedRevision(c), req.Event)
	if err != nil {
		return err
	}
	setETag(c, rec.RevisionID)
	return c.JSON(fiber.Map{"data": h.response(rec)})
}

// Delete DELETE /:id soft-deletes the record.
func (h *RecordsHandler[B]) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if _, err := h.module.Remove(c.UserContext(), actor, c.Params("id"), expectedRevision(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// History GET /:id/events.
func (h *RecordsHandler[B]) History(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	events, err := h.module.History(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HistoryResponse{
		Events:     dto.NewEventResponses(events),
		ChainValid: revision.VerifyChain(events) == nil,
	}})
}

func (h *RecordsHandler[B]) response(rec *domain.Record[B]) dto.RecordResponse[B] {
	return dto.NewRecordResponse(rec, h.module.Events(rec))
}
