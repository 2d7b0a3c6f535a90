package events

import (
	"time"

	"github.com/spec-kit/lead-crm-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated       EventType = "lead_created"
	EventLeadAssigned      EventType = "lead_assigned"
	EventLeadStatusChanged EventType = "lead_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.ActorType `json:"type"`
	AgentID *string          `json:"agent_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LeadID    string      `json:"lead_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	Source domain.LeadSource `json:"source"`
	Name   string            `json:"name"`
	Email  string            `json:"email"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	AgentID string                `json:"agent_id"`
	Role    domain.AssignmentRole `json:"role"`
	Policy  string                `json:"policy"`
}

// LeadStatusChangedPayload payload.
type LeadStatusChangedPayload struct {
	OldStatus domain.LeadStatus `json:"old_status"`
	NewStatus domain.LeadStatus `json:"new_status"`
}
