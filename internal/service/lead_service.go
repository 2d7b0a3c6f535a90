package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/events"
	"github.com/spec-kit/lead-crm-service/internal/repository"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// LeadService coordinates lead lifecycle operations.
type LeadService struct {
	leads       repository.LeadRepository
	agents      repository.AgentRepository
	assignments repository.AssignmentRepository
	activity    repository.ActivityLogRepository
	dispatcher  events.Dispatcher
	validate    *validator.Validate
}

// LeadDependencies bundles repositories.
type LeadDependencies struct {
	LeadRepo       repository.LeadRepository
	AgentRepo      repository.AgentRepository
	AssignmentRepo repository.AssignmentRepository
	ActivityRepo   repository.ActivityLogRepository
	Dispatcher     events.Dispatcher
}

// NewLeadService creates the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	return &LeadService{
		leads:       deps.LeadRepo,
		agents:      deps.AgentRepo,
		assignments: deps.AssignmentRepo,
		activity:    deps.ActivityRepo,
		dispatcher:  deps.Dispatcher,
		validate:    validator.New(),
	}
}

// LeadCreateInput captures a new lead from any channel.
type LeadCreateInput struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Phone    string
	Interest string
	Message  string
	Source   domain.LeadSource `validate:"required"`
}

// CreateLead validates and stores a new lead. The lead is committed
// regardless of what later happens to auto-assignment: a lead is never
// dropped because distribution failed.
func (s *LeadService) CreateLead(ctx context.Context, input LeadCreateInput) (*domain.Lead, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("name and a valid email are required", validationDetails(err))
	}
	if !input.Source.Valid() {
		return nil, apperrors.NewValidationError("unknown lead source", map[string]any{"source": input.Source})
	}

	lead := &domain.Lead{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    strings.TrimSpace(input.Phone),
		Interest: strings.TrimSpace(input.Interest),
		Message:  strings.TrimSpace(input.Message),
		Source:   input.Source,
		Status:   domain.LeadStatusNew,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.activity.Create(ctx, &domain.ActivityLog{
		LeadID:    lead.ID,
		ActorType: domain.ActorTypeSystem,
		Action:    domain.ActionLeadCreated,
		NewValue:  map[string]any{"source": lead.Source, "email": lead.Email},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.EventLeadCreated, lead.ID, nil, events.LeadCreatedPayload{
		Source: lead.Source,
		Name:   lead.Name,
		Email:  lead.Email,
	})
	return lead, nil
}

// GetLeadDetail returns a lead with its assignment and activity trail.
func (s *LeadService) GetLeadDetail(ctx context.Context, id string) (*domain.Lead, []domain.Assignment, []domain.ActivityLog, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, apperrors.NewNotFound("lead", map[string]any{"lead_id": id})
		}
		return nil, nil, nil, apperrors.MapError(err)
	}
	assignments, err := s.assignments.ListByLead(ctx, id)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	activity, err := s.activity.ListByLead(ctx, id)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return lead, assignments, activity, nil
}

// ListLeads returns leads matching the filter.
func (s *LeadService) ListLeads(ctx context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	leads, err := s.leads.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return leads, nil
}

// UpdateStatus transitions a lead to a new lifecycle state.
func (s *LeadService) UpdateStatus(ctx context.Context, actor *domain.Agent, leadID string, status domain.LeadStatus) (*domain.Lead, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown lead status", map[string]any{"status": status})
	}
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("lead", map[string]any{"lead_id": leadID})
		}
		return nil, apperrors.MapError(err)
	}
	if lead.Status == status {
		return lead, nil
	}

	oldStatus := lead.Status
	lead.Status = status
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}

	actorType, actorID := actorFields(actor)
	if err := s.activity.Create(ctx, &domain.ActivityLog{
		LeadID:    lead.ID,
		ActorType: actorType,
		ActorID:   actorID,
		Action:    domain.ActionStatusChanged,
		OldValue:  map[string]any{"status": oldStatus},
		NewValue:  map[string]any{"status": status},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.EventLeadStatusChanged, lead.ID, actor, events.LeadStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: status,
	})
	return lead, nil
}

// AgentLoad pairs an agent with its lifetime assignment count.
type AgentLoad struct {
	AgentID string
	Name    string
	Role    domain.AgentRole
	Load    int
}

// LeadStats aggregates dashboard counters.
type LeadStats struct {
	ByStatus   map[domain.LeadStatus]int
	AgentLoads []AgentLoad
}

// Stats computes lead counts by status and per-agent lifetime load.
func (s *LeadService) Stats(ctx context.Context) (*LeadStats, error) {
	byStatus, err := s.leads.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	agents, err := s.agents.List(ctx, repository.AgentFilter{
		Roles: []domain.AgentRole{domain.AgentRoleSales, domain.AgentRoleTelesales},
		Limit: 1000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ids := make([]string, 0, len(agents))
	for _, agent := range agents {
		ids = append(ids, agent.ID)
	}
	counts := map[string]int{}
	if len(ids) > 0 {
		counts, err = s.assignments.CountByAgents(ctx, ids)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	loads := make([]AgentLoad, 0, len(agents))
	for _, agent := range agents {
		loads = append(loads, AgentLoad{
			AgentID: agent.ID,
			Name:    agent.Name,
			Role:    agent.Role,
			Load:    counts[agent.ID],
		})
	}
	return &LeadStats{ByStatus: byStatus, AgentLoads: loads}, nil
}

func (s *LeadService) publishEvent(ctx context.Context, eventType events.EventType, leadID string, actor *domain.Agent, payload any) {
	if s.dispatcher == nil {
		return
	}
	actorType, actorID := actorFields(actor)
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		LeadID:    leadID,
		Actor:     events.Actor{Type: actorType, AgentID: actorID},
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func validationDetails(err error) map[string]any {
	details := map[string]any{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return details
}
