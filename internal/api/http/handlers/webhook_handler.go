package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm-service/internal/api/dto"
	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/service"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

const webhookSource = "lead-webhook"

// WebhookHandler ingests leads pushed by external systems.
type WebhookHandler struct {
	intake *service.IntakeService
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(intake *service.IntakeService) *WebhookHandler {
	return &WebhookHandler{intake: intake}
}

// IngestLead POST /webhooks/leads/:token?.
//
// The token may arrive as a path segment, X-Api-Key or X-Webhook-Token. The
// 201 only acknowledges lead creation; distribution runs afterwards and its
// outcome does not change the response.
func (h *WebhookHandler) IngestLead(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		token = c.Get("X-Api-Key")
	}
	if token == "" {
		token = c.Get("X-Webhook-Token")
	}
	if !h.intake.Authorize(token) {
		h.intake.RecordOutcome(c.Context(), webhookSource, domain.IntegrationOutcomeUnauthorized,
			http.StatusUnauthorized, nil, "invalid webhook token")
		return apperrors.NewUnauthorized("invalid webhook token")
	}

	var raw map[string]any
	if err := c.BodyParser(&raw); err != nil {
		h.intake.RecordOutcome(c.Context(), webhookSource, domain.IntegrationOutcomeRejected,
			http.StatusBadRequest, nil, "malformed JSON body")
		return apperrors.NewValidationError("malformed JSON body", nil)
	}

	lead, err := h.intake.IngestLead(c.Context(), webhookSource, raw)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.WebhookLeadResponse{
		Success: true,
		LeadID:  lead.ID,
	})
}
