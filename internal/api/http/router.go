package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm-service/internal/api/http/handlers"
	"github.com/spec-kit/lead-crm-service/internal/auth"
	"github.com/spec-kit/lead-crm-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health             *handlers.HealthHandler
	Leads              *handlers.LeadsHandler
	Assignments        *handlers.AssignmentsHandler
	Agents             *handlers.AgentsHandler
	Webhook            *handlers.WebhookHandler
	AuthMiddleware     *auth.AuthMiddleware
	WebhookRateLimiter fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Public lead capture from the website and chatbot forms.
	app.Post("/leads", cfg.Leads.CreateLead)

	// External systems push leads here with a shared token.
	webhooks := app.Group("/webhooks")
	if cfg.WebhookRateLimiter != nil {
		webhooks.Use(cfg.WebhookRateLimiter)
	}
	webhooks.Post("/leads", cfg.Webhook.IngestLead)
	webhooks.Post("/leads/:token", cfg.Webhook.IngestLead)

	authGroup := app.Group("/auth")
	authGroup.Post("/agents/login", cfg.Agents.Login)
	authGroup.Post("/password/reset/request", cfg.Agents.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Agents.ConfirmPasswordReset)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyAgent())
	protected.Post("/password/change", cfg.Agents.ChangePassword)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAnyAgent())

	admin.Get("/leads", cfg.Leads.ListLeads)
	admin.Get("/stats/leads", cfg.Leads.Stats)
	admin.Get("/leads/:id", cfg.Leads.GetLead)
	admin.Patch("/leads/:id/status", cfg.Leads.UpdateStatus)

	managers := auth.RequireAgentRole(domain.AgentRoleAdmin, domain.AgentRoleManager)
	admin.Post("/leads/auto-assign", managers, cfg.Assignments.BulkAssign)
	admin.Post("/leads/:id/assign", managers, cfg.Assignments.AssignLead)

	admin.Get("/agents", cfg.Agents.ListAgents)
	admin.Post("/agents", auth.RequireAgentRole(domain.AgentRoleAdmin), cfg.Agents.CreateAgent)
	admin.Patch("/agents/:id/availability", managers, cfg.Agents.SetAvailability)
}
