package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm-service/internal/api/dto"
	"github.com/spec-kit/lead-crm-service/internal/auth"
	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/service"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// AssignmentsHandler manages admin assignment endpoints.
type AssignmentsHandler struct {
	assignment *service.AssignmentService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(assignment *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{assignment: assignment}
}

// AssignLead POST /admin/leads/:id/assign, manual placement.
func (h *AssignmentsHandler) AssignLead(c *fiber.Ctx) error {
	var req dto.AssignLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}
	lead, err := h.assignment.Reassign(c.Context(), agentFromContext(c), c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadSummary(lead)})
}

// BulkAssign POST /admin/leads/auto-assign, round-robin over the selected pool.
func (h *AssignmentsHandler) BulkAssign(c *fiber.Ctx) error {
	var req dto.BulkAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.LeadIDs) == 0 {
		return apperrors.NewValidationError("lead_ids required", nil)
	}
	if len(req.AgentIDs) == 0 {
		return apperrors.NewValidationError("agent_ids required", nil)
	}
	result, err := h.assignment.BulkAssign(c.Context(), agentFromContext(c), req.LeadIDs, req.AgentIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkAssignResponse{
		Requested: result.Requested,
		Assigned:  result.Assigned,
	}})
}

func agentFromContext(c *fiber.Ctx) *domain.Agent {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return principal.Agent
}
