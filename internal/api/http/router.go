package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/compliance-service/internal/api/http/handlers"
	"github.com/spec-kit/compliance-service/internal/auth"
	"github.com/spec-kit/compliance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Audits         *handlers.RecordsHandler[domain.Audit]
	Issues         *handlers.RecordsHandler[domain.Issue]
	Policies       *handlers.RecordsHandler[domain.Policy]
	Risks          *handlers.RecordsHandler[domain.Risk]
	Controls       *handlers.RecordsHandler[domain.Control]
	Workflows      *handlers.WorkflowsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)
	writer := auth.RequireWriter()

	mountRecords(api.Group("/audits"), cfg.Audits, writer)
	mountRecords(api.Group("/issues"), cfg.Issues, writer)
	mountRecords(api.Group("/policies"), cfg.Policies, writer)
	mountRecords(api.Group("/risks"), cfg.Risks, writer)
	mountRecords(api.Group("/controls"), cfg.Controls, writer)

	api.Get("/events", cfg.Workflows.Activity)

	workflows := api.Group("/workflows")
	workflows.Post("/", writer, cfg.Workflows.Start)
	workflows.Get("/", cfg.Workflows.List)
	workflows.Get("/:id", cfg.Workflows.Get)
	workflows.Post("/:id/transitions", writer, cfg.Workflows.Transition)
	workflows.Get("/:id/events", cfg.Workflows.History)
}

func mountRecords[B any](group fiber.Router, h *handlers.RecordsHandler[B], writer fiber.Handler) {
	group.Post("/", writer, h.Create)
	group.Get("/", h.List)
	group.Get("/:id", h.Get)
	group.Patch("/:id", writer, h.Update)
	group.Post("/:id/transitions", writer, h.Transition)
	group.Delete("/:id", writer, h.Delete)
	group.Get("/:id/events", h.History)
}
