package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm-service/internal/balancer"
	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/events"
	"github.com/spec-kit/lead-crm-service/internal/observability"
	"github.com/spec-kit/lead-crm-service/internal/repository"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// AssignmentService is the single entry point for lead distribution. All call
// sites (public form, webhook intake, admin bulk action, manual reassignment)
// go through it instead of re-deriving the selection logic.
type AssignmentService struct {
	leads       repository.LeadRepository
	agents      repository.AgentRepository
	assignments repository.AssignmentRepository
	activity    repository.ActivityLogRepository
	balancer    *balancer.Balancer
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// AssignmentDependencies bundles repositories and collaborators.
type AssignmentDependencies struct {
	LeadRepo       repository.LeadRepository
	AgentRepo      repository.AgentRepository
	AssignmentRepo repository.AssignmentRepository
	ActivityRepo   repository.ActivityLogRepository
	Balancer       *balancer.Balancer
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	b := deps.Balancer
	if b == nil {
		b = balancer.New()
	}
	return &AssignmentService{
		leads:       deps.LeadRepo,
		agents:      deps.AgentRepo,
		assignments: deps.AssignmentRepo,
		activity:    deps.ActivityRepo,
		balancer:    b,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// AssignOptions control pool selection for single-lead assignment.
type AssignOptions struct {
	// IncludeUnavailable keeps on-leave agents in the pool. The webhook
	// intake distributes external leads regardless of leave status; form
	// and admin paths leave this false.
	IncludeUnavailable bool
	// Actor is the agent performing the assignment; nil means the system.
	Actor *domain.Agent
}

// policyManual tags assignments made by hand rather than by a balancer policy.
const policyManual = balancer.Policy("manual")

// BulkAssignResult reports the outcome of a partial-failure tolerant batch.
type BulkAssignResult struct {
	Requested int
	Assigned  int
}

// AutoAssignLead places one unassigned lead with the least-loaded eligible
// agent, breaking load ties uniformly at random. Load is the lifetime count
// of assignment rows per agent, read once before writing; two concurrent
// invocations can observe the same snapshot and pick the same agent. That
// race is accepted: there is no lock, and no reconciliation afterwards.
//
// Invoking on an already-assigned lead is a no-op returning the current
// state, so repeated delivery of the same webhook cannot skew load counts.
func (s *AssignmentService) AutoAssignLead(ctx context.Context, leadID string, opts AssignOptions) (*domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("lead", map[string]any{"lead_id": leadID})
		}
		return nil, apperrors.MapError(err)
	}
	if lead.AssignedTo != nil {
		return lead, nil
	}

	pool, err := s.eligibleAgents(ctx, opts.IncludeUnavailable)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(pool) == 0 {
		s.metrics.RecordAssignment(string(balancer.PolicyLeastLoaded), false)
		return nil, apperrors.NewConflict("no eligible assignees", nil)
	}

	candidates, byID, err := s.loadCandidates(ctx, pool)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	chosenID, err := s.balancer.PickLeastLoaded(candidates)
	if err != nil {
		return nil, apperrors.NewConflict("no eligible assignees", nil)
	}
	agent := byID[chosenID]

	if err := s.persistAssignment(ctx, lead, agent, opts.Actor, balancer.PolicyLeastLoaded); err != nil {
		s.metrics.RecordAssignment(string(balancer.PolicyLeastLoaded), false)
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordAssignment(string(balancer.PolicyLeastLoaded), true)
	return lead, nil
}

// BulkAssign distributes the given leads over the given agents round-robin:
// the i-th lead goes to agents[i mod n], in the order the caller selected
// them. Unavailable or non-assignable agents are dropped from the pool
// first. A failure on one lead is logged and skipped; the batch continues
// and the result reports how many succeeded. No rollback, no retry.
func (s *AssignmentService) BulkAssign(ctx context.Context, actor *domain.Agent, leadIDs, agentIDs []string) (BulkAssignResult, error) {
	result := BulkAssignResult{Requested: len(leadIDs)}

	pool, err := s.resolveAgents(ctx, agentIDs)
	if err != nil {
		return result, apperrors.MapError(err)
	}
	if len(pool) == 0 {
		return result, apperrors.NewConflict("no eligible assignees", nil)
	}

	byID := make(map[string]*domain.Agent, len(pool))
	poolIDs := make([]string, 0, len(pool))
	for i := range pool {
		byID[pool[i].ID] = &pool[i]
		poolIDs = append(poolIDs, pool[i].ID)
	}

	pairs, err := balancer.DistributeRoundRobin(leadIDs, poolIDs)
	if err != nil {
		return result, apperrors.NewConflict("no eligible assignees", nil)
	}

	for _, pair := range pairs {
		lead, err := s.leads.GetByID(ctx, pair.LeadID)
		if err != nil {
			s.logger.Warn("bulk assign: lead lookup failed",
				zap.String("lead_id", pair.LeadID), zap.Error(err))
			s.metrics.RecordAssignment(string(balancer.PolicyRoundRobin), false)
			continue
		}
		if lead.AssignedTo != nil {
			s.logger.Warn("bulk assign: lead already assigned, skipping",
				zap.String("lead_id", pair.LeadID))
			continue
		}
		if err := s.persistAssignment(ctx, lead, byID[pair.AgentID], actor, balancer.PolicyRoundRobin); err != nil {
			s.logger.Warn("bulk assign: persist failed",
				zap.String("lead_id", pair.LeadID),
				zap.String("agent_id", pair.AgentID),
				zap.Error(err))
			s.metrics.RecordAssignment(string(balancer.PolicyRoundRobin), false)
			continue
		}
		s.metrics.RecordAssignment(string(balancer.PolicyRoundRobin), true)
		result.Assigned++
	}
	return result, nil
}

// Reassign manually places a lead with a specific agent.
func (s *AssignmentService) Reassign(ctx context.Context, actor *domain.Agent, leadID, agentID string) (*domain.Lead, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !agent.Role.Assignable() {
		return nil, apperrors.NewConflict("agent role cannot receive leads", map[string]any{"agent_id": agentID})
	}
	if !agent.Available {
		return nil, apperrors.NewConflict("agent unavailable", map[string]any{"agent_id": agentID})
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("lead", map[string]any{"lead_id": leadID})
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.persistAssignment(ctx, lead, agent, actor, policyManual); err != nil {
		return nil, apperrors.MapError(err)
	}
	return lead, nil
}

func (s *AssignmentService) eligibleAgents(ctx context.Context, includeUnavailable bool) ([]domain.Agent, error) {
	filter := repository.AgentFilter{
		Roles: []domain.AgentRole{domain.AgentRoleSales, domain.AgentRoleTelesales},
		Limit: 1000,
	}
	if !includeUnavailable {
		filter.Available = ptrBool(true)
	}
	return s.agents.List(ctx, filter)
}

// resolveAgents loads the caller-selected pool, preserving the caller's
// order, and drops agents that cannot receive leads.
func (s *AssignmentService) resolveAgents(ctx context.Context, agentIDs []string) ([]domain.Agent, error) {
	result := make([]domain.Agent, 0, len(agentIDs))
	for _, id := range agentIDs {
		agent, err := s.agents.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				s.logger.Warn("bulk assign: unknown agent dropped", zap.String("agent_id", id))
				continue
			}
			return nil, err
		}
		if !agent.Role.Assignable() || !agent.Available {
			continue
		}
		result = append(result, *agent)
	}
	return result, nil
}

func (s *AssignmentService) loadCandidates(ctx context.Context, pool []domain.Agent) ([]balancer.Candidate, map[string]*domain.Agent, error) {
	ids := make([]string, 0, len(pool))
	byID := make(map[string]*domain.Agent, len(pool))
	for i := range pool {
		ids = append(ids, pool[i].ID)
		byID[pool[i].ID] = &pool[i]
	}

	counts, err := s.assignments.CountByAgents(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]balancer.Candidate, 0, len(pool))
	for _, id := range ids {
		candidates = append(candidates, balancer.Candidate{ID: id, Load: counts[id]})
	}
	return candidates, byID, nil
}

func (s *AssignmentService) persistAssignment(ctx context.Context, lead *domain.Lead, agent *domain.Agent, actor *domain.Agent, policy balancer.Policy) error {
	now := time.Now()
	role := domain.AssignmentRoleFor(agent.Role)

	if err := s.assignments.Create(ctx, &domain.Assignment{
		LeadID:  lead.ID,
		AgentID: agent.ID,
		Role:    role,
	}); err != nil {
		return err
	}
	if err := s.leads.SetAssignment(ctx, lead.ID, agent.ID, now); err != nil {
		return err
	}

	oldAssignee := lead.AssignedTo
	lead.AssignedTo = &agent.ID
	lead.AssignedAt = &now

	action := domain.ActionLeadAssigned
	if oldAssignee != nil {
		action = domain.ActionLeadReassigned
	}
	if err := s.recordAssignment(ctx, lead.ID, actor, action, oldAssignee, &agent.ID); err != nil {
		return err
	}

	s.publishAssignedEvent(ctx, lead.ID, actor, events.LeadAssignedPayload{
		AgentID: agent.ID,
		Role:    role,
		Policy:  string(policy),
	})
	return nil
}

func (s *AssignmentService) recordAssignment(ctx context.Context, leadID string, actor *domain.Agent, action domain.ActivityAction, oldAssignee, newAssignee *string) error {
	actorType, actorID := actorFields(actor)
	return s.activity.Create(ctx, &domain.ActivityLog{
		LeadID:    leadID,
		ActorType: actorType,
		ActorID:   actorID,
		Action:    action,
		OldValue: map[string]any{
			"assigned_to": oldAssignee,
		},
		NewValue: map[string]any{
			"assigned_to": newAssignee,
		},
	})
}

func (s *AssignmentService) publishAssignedEvent(ctx context.Context, leadID string, actor *domain.Agent, payload events.LeadAssignedPayload) {
	if s.dispatcher == nil {
		return
	}
	actorType, actorID := actorFields(actor)
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLeadAssigned,
		LeadID:    leadID,
		Actor:     events.Actor{Type: actorType, AgentID: actorID},
		Timestamp: time.Now(),
		Payload:   payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFields(actor *domain.Agent) (domain.ActorType, *string) {
	if actor == nil {
		return domain.ActorTypeSystem, nil
	}
	return domain.ActorTypeAgent, &actor.ID
}

func ptrBool(v bool) *bool {
	return &v
}
