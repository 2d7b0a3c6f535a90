package service

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/repository"
)

// Field name aliases accepted on the inbound webhook. External CRMs and ad
// portals disagree on payload shapes; the first populated alias wins.
var (
	nameAliases     = []string{"name", "full_name", "fullName", "contact_name", "customer_name"}
	emailAliases    = []string{"email", "email_address", "emailAddress", "mail"}
	phoneAliases    = []string{"phone", "phone_number", "phoneNumber", "mobile", "contact_number", "whatsapp"}
	interestAliases = []string{"interest", "property", "project", "property_name", "unit_type"}
	messageAliases  = []string{"message", "notes", "comment", "description", "enquiry"}
)

// IntakeService handles webhook lead ingestion: token checks, payload
// normalization, lead creation and fire-and-forget distribution.
type IntakeService struct {
	leadService *LeadService
	assignment  *AssignmentService
	integration repository.IntegrationLogRepository
	logger      *zap.Logger
	token       string
}

// IntakeDependencies bundles collaborators.
type IntakeDependencies struct {
	LeadService     *LeadService
	Assignment      *AssignmentService
	IntegrationRepo repository.IntegrationLogRepository
	Logger          *zap.Logger
	Token           string
}

// NewIntakeService creates the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		leadService: deps.LeadService,
		assignment:  deps.Assignment,
		integration: deps.IntegrationRepo,
		logger:      deps.Logger,
		token:       deps.Token,
	}
}

// Authorize checks a caller-provided token against the configured secret.
// An unset secret rejects everything.
func (s *IntakeService) Authorize(provided string) bool {
	if s.token == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(provided)) == 1
}

// NormalizePayload maps an arbitrary JSON object onto a lead, resolving the
// field aliases above. Non-string values are ignored.
func NormalizePayload(raw map[string]any) LeadCreateInput {
	return LeadCreateInput{
		Name:     firstString(raw, nameAliases),
		Email:    firstString(raw, emailAliases),
		Phone:    firstString(raw, phoneAliases),
		Interest: firstString(raw, interestAliases),
		Message:  firstString(raw, messageAliases),
		Source:   domain.LeadSourceWebhook,
	}
}

// IngestLead creates a lead from a raw webhook payload and kicks off
// auto-assignment in the background. The caller's response only depends on
// lead creation: assignment happens after the 201 has been decided, and the
// webhook path deliberately considers on-leave agents too.
func (s *IntakeService) IngestLead(ctx context.Context, source string, raw map[string]any) (*domain.Lead, error) {
	input := NormalizePayload(raw)
	lead, err := s.leadService.CreateLead(ctx, input)
	if err != nil {
		s.RecordOutcome(ctx, source, domain.IntegrationOutcomeRejected, http.StatusBadRequest, nil, err.Error())
		return nil, err
	}
	s.RecordOutcome(ctx, source, domain.IntegrationOutcomeAccepted, http.StatusCreated, &lead.ID, "")

	go s.assignInBackground(lead.ID)
	return lead, nil
}

// RecordOutcome writes an integration log entry; failures are logged only.
func (s *IntakeService) RecordOutcome(ctx context.Context, source string, outcome domain.IntegrationOutcome, status int, leadID *string, detail string) {
	entry := &domain.IntegrationLog{
		Source:     source,
		Outcome:    outcome,
		StatusCode: status,
		LeadID:     leadID,
		Detail:     detail,
	}
	if err := s.integration.Create(ctx, entry); err != nil {
		s.logger.Warn("integration log write failed", zap.Error(err))
	}
}

func (s *IntakeService) assignInBackground(leadID string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("background assignment panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.assignment.AutoAssignLead(ctx, leadID, AssignOptions{IncludeUnavailable: true}); err != nil {
		// Degrade to unassigned: an admin can place the lead manually later.
		s.logger.Warn("webhook auto-assignment failed",
			zap.String("lead_id", leadID), zap.Error(err))
	}
}

func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if val, ok := raw[key].(string); ok && val != "" {
			return val
		}
	}
	return ""
}
