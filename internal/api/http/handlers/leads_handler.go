package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm-service/internal/api/dto"
	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/repository"
	"github.com/spec-kit/lead-crm-service/internal/service"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// LeadsHandler manages public lead capture and admin lead endpoints.
type LeadsHandler struct {
	leads      *service.LeadService
	assignment *service.AssignmentService
	logger     *zap.Logger
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leads *service.LeadService, assignment *service.AssignmentService, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{leads: leads, assignment: assignment, logger: logger}
}

// CreateLead POST /leads (public form).
func (h *LeadsHandler) CreateLead(c *fiber.Ctx) error {
	var req dto.CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	source := domain.LeadSource(req.Source)
	switch source {
	case domain.LeadSourceWebsite, domain.LeadSourceChatbot:
	default:
		source = domain.LeadSourceWebsite
	}

	lead, err := h.leads.CreateLead(c.Context(), service.LeadCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Interest: req.Interest,
		Message:  req.Message,
		Source:   source,
	})
	if err != nil {
		return err
	}

	// Lead creation already committed; a failed distribution degrades to
	// an unassigned lead rather than an error response.
	if assigned, err := h.assignment.AutoAssignLead(c.Context(), lead.ID, service.AssignOptions{}); err != nil {
		h.logger.Warn("form auto-assignment failed", zap.String("lead_id", lead.ID), zap.Error(err))
	} else {
		lead = assigned
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": leadSummary(lead)})
}

// ListLeads GET /admin/leads.
func (h *LeadsHandler) ListLeads(c *fiber.Ctx) error {
	filter := parseLeadQuery(c)
	leads, err := h.leads.ListLeads(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.LeadSummary, 0, len(leads))
	for i := range leads {
		items = append(items, leadSummary(&leads[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetLead GET /admin/leads/:id.
func (h *LeadsHandler) GetLead(c *fiber.Ctx) error {
	lead, assignments, activity, err := h.leads.GetLeadDetail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadDetail(lead, assignments, activity)})
}

// UpdateStatus PATCH /admin/leads/:id/status.
func (h *LeadsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateLeadStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	lead, err := h.leads.UpdateStatus(c.Context(), agentFromContext(c), c.Params("id"), domain.LeadStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadSummary(lead)})
}

// Stats GET /admin/stats/leads.
func (h *LeadsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.leads.Stats(c.Context())
	if err != nil {
		return err
	}
	loads := make([]dto.AgentLoadResponse, 0, len(stats.AgentLoads))
	for _, load := range stats.AgentLoads {
		loads = append(loads, dto.AgentLoadResponse{
			AgentID: load.AgentID,
			Name:    load.Name,
			Role:    load.Role,
			Load:    load.Load,
		})
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		ByStatus:   stats.ByStatus,
		AgentLoads: loads,
	}})
}

func parseLeadQuery(c *fiber.Ctx) repository.LeadFilter {
	filter := repository.LeadFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.LeadStatus(strings.TrimSpace(part)))
		}
	}
	if sourceStr := c.Query("source"); sourceStr != "" {
		for _, part := range strings.Split(sourceStr, ",") {
			filter.Sources = append(filter.Sources, domain.LeadSource(strings.TrimSpace(part)))
		}
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if c.Query("unassigned") == "true" {
		filter.Unassigned = true
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func leadSummary(lead *domain.Lead) dto.LeadSummary {
	return dto.LeadSummary{
		ID:         lead.ID,
		Name:       lead.Name,
		Email:      lead.Email,
		Phone:      lead.Phone,
		Interest:   lead.Interest,
		Source:     lead.Source,
		Status:     lead.Status,
		AssignedTo: lead.AssignedTo,
		AssignedAt: lead.AssignedAt,
		CreatedAt:  lead.CreatedAt,
		UpdatedAt:  lead.UpdatedAt,
	}
}

func leadDetail(lead *domain.Lead, assignments []domain.Assignment, activity []domain.ActivityLog) dto.LeadDetailResponse {
	assignmentResp := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		assignmentResp = append(assignmentResp, dto.AssignmentResponse{
			ID:        assignment.ID,
			AgentID:   assignment.AgentID,
			Role:      assignment.Role,
			CreatedAt: assignment.CreatedAt,
		})
	}
	activityResp := make([]dto.ActivityResponse, 0, len(activity))
	for _, entry := range activity {
		activityResp = append(activityResp, dto.ActivityResponse{
			ID:        entry.ID,
			ActorType: entry.ActorType,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto.LeadDetailResponse{
		LeadSummary: leadSummary(lead),
		Message:     lead.Message,
		Assignments: assignmentResp,
		Activity:    activityResp,
	}
}
