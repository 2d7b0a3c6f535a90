package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm-service/internal/api/dto"
	"github.com/spec-kit/lead-crm-service/internal/auth"
	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/repository"
	"github.com/spec-kit/lead-crm-service/internal/service"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// AgentsHandler manages agent auth and roster endpoints.
type AgentsHandler struct {
	authService  *service.AuthService
	agentService *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(authService *service.AuthService, agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{authService: authService, agentService: agentService}
}

// Login POST /auth/agents/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	agent, token, expiresAt, err := h.authService.LoginAgent(c.Context(), req.Email, req.Password)
	if err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Agent:     agentResponse(agent),
	}})
}

// RequestPasswordReset POST /auth/password/reset/request.
func (h *AgentsHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	// Do not reveal whether the email exists.
	_, _ = h.authService.RequestPasswordReset(c.Context(), req.Email)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "accepted"}})
}

// ConfirmPasswordReset POST /auth/password/reset/confirm.
func (h *AgentsHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new_password required", nil)
	}
	if err := h.authService.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return apperrors.NewValidationError("invalid or expired token", nil)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password updated"}})
}

// ChangePassword POST /auth/password/change.
func (h *AgentsHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}
	if err := h.authService.ChangePassword(c.Context(), principal.Agent.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password updated"}})
}

// CreateAgent POST /admin/agents.
func (h *AgentsHandler) CreateAgent(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agent, err := h.agentService.CreateAgent(c.Context(), service.AgentCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.AgentRole(req.Role),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": agentResponse(agent)})
}

// ListAgents GET /admin/agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	filter := repository.AgentFilter{Limit: parseInt(c.Query("page_size"), 50)}
	if role := c.Query("role"); role != "" {
		filter.Roles = []domain.AgentRole{domain.AgentRole(role)}
	}
	if avail := c.Query("available"); avail == "true" || avail == "false" {
		val := avail == "true"
		filter.Available = &val
	}
	agents, err := h.agentService.ListAgents(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetAvailability PATCH /admin/agents/:id/availability.
func (h *AgentsHandler) SetAvailability(c *fiber.Ctx) error {
	var req dto.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Available == nil {
		return apperrors.NewValidationError("available required", nil)
	}
	agent, err := h.agentService.SetAvailability(c.Context(), c.Params("id"), *req.Available)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:        agent.ID,
		Name:      agent.Name,
		Email:     agent.Email,
		Role:      agent.Role,
		Available: agent.Available,
		CreatedAt: agent.CreatedAt,
	}
}
