package dto

import (
	"time"

	"github.com/spec-kit/lead-crm-service/internal/domain"
)

// CreateLeadRequest payload for the public form.
type CreateLeadRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Interest string `json:"interest"`
	Message  string `json:"message"`
	Source   string `json:"source"`
}

// LeadSummary response.
type LeadSummary struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	Interest   string            `json:"interest"`
	Source     domain.LeadSource `json:"source"`
	Status     domain.LeadStatus `json:"status"`
	AssignedTo *string           `json:"assigned_to"`
	AssignedAt *time.Time        `json:"assigned_at"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// LeadDetailResponse provides full lead info with its trail.
type LeadDetailResponse struct {
	LeadSummary
	Message     string               `json:"message"`
	Assignments []AssignmentResponse `json:"assignments"`
	Activity    []ActivityResponse   `json:"activity"`
}

// AssignmentResponse represents one assignment row.
type AssignmentResponse struct {
	ID        string                `json:"id"`
	AgentID   string                `json:"agent_id"`
	Role      domain.AssignmentRole `json:"role"`
	CreatedAt time.Time             `json:"created_at"`
}

// ActivityResponse represents an audit entry.
type ActivityResponse struct {
	ID        string                `json:"id"`
	ActorType domain.ActorType      `json:"actor_type"`
	ActorID   *string               `json:"actor_id"`
	Action    domain.ActivityAction `json:"action"`
	OldValue  map[string]any        `json:"old_value,omitempty"`
	NewValue  map[string]any        `json:"new_value,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// UpdateLeadStatusRequest payload.
type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
}

// AssignLeadRequest payload for manual assignment.
type AssignLeadRequest struct {
	AgentID string `json:"agent_id"`
}

// BulkAssignRequest payload for the admin auto-assign action.
type BulkAssignRequest struct {
	LeadIDs  []string `json:"lead_ids"`
	AgentIDs []string `json:"agent_ids"`
}

// BulkAssignResponse reports batch outcome.
type BulkAssignResponse struct {
	Requested int `json:"requested"`
	Assigned  int `json:"assigned"`
}

// WebhookLeadResponse acknowledges webhook intake.
type WebhookLeadResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"lead_id"`
}

// AgentLoadResponse pairs an agent with its lifetime load.
type AgentLoadResponse struct {
	AgentID string           `json:"agent_id"`
	Name    string           `json:"name"`
	Role    domain.AgentRole `json:"role"`
	Load    int              `json:"load"`
}

// StatsResponse aggregates dashboard counters.
type StatsResponse struct {
	ByStatus   map[domain.LeadStatus]int `json:"by_status"`
	AgentLoads []AgentLoadResponse       `json:"agent_loads"`
}
