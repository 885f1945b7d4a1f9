package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	SLA            *handlers.SLAHandler
	TicketSLA      *handlers.TicketSLAHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	api.Get("/operational-hours", cfg.SLA.OperationalHours)
	api.Post("/operational-hours/refresh", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.SLA.RefreshOperationalHours)

	sla := api.Group("/sla")
	sla.Get("/window", cfg.SLA.Window)
	sla.Post("/due-date", cfg.SLA.DueDate)
	sla.Post("/checkpoints", cfg.SLA.Checkpoints)
	sla.Post("/status", cfg.SLA.Status)
	sla.Post("/elapsed", cfg.SLA.Elapsed)

	api.Get("/tickets/:id/sla", cfg.TicketSLA.Get)
	api.Get("/tickets/:id/sla/history", cfg.TicketSLA.History)
	api.Put("/tickets/:id/sla", auth.RequireStaffRole(domain.StaffRoleTeamLead, domain.StaffRoleAdmin), cfg.TicketSLA.Stamp)
}
