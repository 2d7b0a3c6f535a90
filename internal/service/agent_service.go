package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-crm-service/internal/auth"
	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/repository"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// AgentService manages the agent roster.
type AgentService struct {
	agents     repository.AgentRepository
	bcryptCost int
}

// NewAgentService builds the service.
func NewAgentService(agents repository.AgentRepository, bcryptCost int) *AgentService {
	return &AgentService{agents: agents, bcryptCost: bcryptCost}
}

// AgentCreateInput captures a new roster entry.
type AgentCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.AgentRole
}

// CreateAgent registers a new agent with a hashed password.
func (s *AgentService) CreateAgent(ctx context.Context, input AgentCreateInput) (*domain.Agent, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("name, email, password required", nil)
	}
	switch input.Role {
	case domain.AgentRoleAdmin, domain.AgentRoleManager, domain.AgentRoleSales, domain.AgentRoleTelesales:
	default:
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}

	if _, err := s.agents.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	agent := &domain.Agent{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Available:    true,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// ListAgents returns agents matching the filter.
func (s *AgentService) ListAgents(ctx context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	agents, err := s.agents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// SetAvailability flips the on-leave flag for an agent.
func (s *AgentService) SetAvailability(ctx context.Context, agentID string, available bool) (*domain.Agent, error) {
	if err := s.agents.SetAvailability(ctx, agentID, available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}
