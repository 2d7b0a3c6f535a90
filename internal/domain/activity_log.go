package domain

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorTypeAgent  ActorType = "AGENT"
	ActorTypeSystem ActorType = "SYSTEM"
)

// ActivityAction captures what happened in an activity entry.
type ActivityAction string

const (
	ActionLeadCreated    ActivityAction = "LEAD_CREATED"
	ActionLeadAssigned   ActivityAction = "LEAD_ASSIGNED"
	ActionLeadReassigned ActivityAction = "LEAD_REASSIGNED"
	ActionStatusChanged  ActivityAction = "STATUS_CHANGED"
)

// ActivityLog is an immutable audit trail entry for a lead.
type ActivityLog struct {
	ID        string
	LeadID    string
	ActorType ActorType
	ActorID   *string
	Action    ActivityAction
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedAt time.Time
}
