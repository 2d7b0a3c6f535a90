package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/repository"
)

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads map[string]*domain.Lead
	seq   int
}

func newFakeLeadRepo(leads ...*domain.Lead) *fakeLeadRepo {
	repo := &fakeLeadRepo{leads: make(map[string]*domain.Lead)}
	for _, lead := range leads {
		copied := *lead
		repo.leads[lead.ID] = &copied
	}
	return repo
}

func (r *fakeLeadRepo) Create(_ context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	lead.ID = fmt.Sprintf("lead-%d", r.seq)
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	copied := *lead
	r.leads[lead.ID] = &copied
	return nil
}

func (r *fakeLeadRepo) Update(_ context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[lead.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *lead
	r.leads[lead.ID] = &copied
	return nil
}

func (r *fakeLeadRepo) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *lead
	return &copied, nil
}

func (r *fakeLeadRepo) ListWithFilter(_ context.Context, _ repository.LeadFilter) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		result = append(result, *lead)
	}
	return result, nil
}

func (r *fakeLeadRepo) SetAssignment(_ context.Context, leadID, agentID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[leadID]
	if !ok {
		return pgx.ErrNoRows
	}
	lead.AssignedTo = &agentID
	lead.AssignedAt = &at
	return nil
}

func (r *fakeLeadRepo) CountByStatus(_ context.Context) (map[domain.LeadStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.LeadStatus]int)
	for _, lead := range r.leads {
		counts[lead.Status]++
	}
	return counts, nil
}

type fakeAgentRepo struct {
	agents []domain.Agent
}

func newFakeAgentRepo(agents ...domain.Agent) *fakeAgentRepo {
	return &fakeAgentRepo{agents: agents}
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	r.agents = append(r.agents, *agent)
	return nil
}

func (r *fakeAgentRepo) Update(_ context.Context, agent *domain.Agent) error {
	for i := range r.agents {
		if r.agents[i].ID == agent.ID {
			r.agents[i] = *agent
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	for i := range r.agents {
		if r.agents[i].ID == id {
			copied := r.agents[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	for i := range r.agents {
		if r.agents[i].Email == email {
			copied := r.agents[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAgentRepo) List(_ context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	result := make([]domain.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		if len(filter.Roles) > 0 && !roleIn(agent.Role, filter.Roles) {
			continue
		}
		if filter.Available != nil && agent.Available != *filter.Available {
			continue
		}
		result = append(result, agent)
	}
	return result, nil
}

func (r *fakeAgentRepo) SetAvailability(_ context.Context, id string, available bool) error {
	for i := range r.agents {
		if r.agents[i].ID == id {
			r.agents[i].Available = available
			return nil
		}
	}
	return pgx.ErrNoRows
}

func roleIn(role domain.AgentRole, roles []domain.AgentRole) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

type fakeAssignmentRepo struct {
	mu   sync.Mutex
	rows []domain.Assignment
	// failLeads makes Create fail for the named lead IDs.
	failLeads map[string]bool
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{failLeads: make(map[string]bool)}
}

func (r *fakeAssignmentRepo) Create(_ context.Context, assignment *domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLeads[assignment.LeadID] {
		return fmt.Errorf("insert failed for lead %s", assignment.LeadID)
	}
	assignment.ID = fmt.Sprintf("assignment-%d", len(r.rows)+1)
	assignment.CreatedAt = time.Now()
	r.rows = append(r.rows, *assignment)
	return nil
}

func (r *fakeAssignmentRepo) ListByLead(_ context.Context, leadID string) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Assignment
	for _, row := range r.rows {
		if row.LeadID == leadID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (r *fakeAssignmentRepo) CountByAgents(_ context.Context, agentIDs []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(agentIDs))
	for _, id := range agentIDs {
		wanted[id] = true
	}
	counts := make(map[string]int)
	for _, row := range r.rows {
		if wanted[row.AgentID] {
			counts[row.AgentID]++
		}
	}
	return counts, nil
}

func (r *fakeAssignmentRepo) countFor(agentID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.AgentID == agentID {
			count++
		}
	}
	return count
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLog
}

func (r *fakeActivityRepo) Create(_ context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("activity-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) ListByLead(_ context.Context, leadID string) ([]domain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ActivityLog
	for _, entry := range r.entries {
		if entry.LeadID == leadID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeIntegrationRepo struct {
	mu      sync.Mutex
	entries []domain.IntegrationLog
}

func (r *fakeIntegrationRepo) Create(_ context.Context, entry *domain.IntegrationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("integration-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}
