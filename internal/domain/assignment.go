package domain

import "time"

// AssignmentRole tags an assignment row with the receiving agent's function.
type AssignmentRole string

const (
	AssignmentRoleMember    AssignmentRole = "member"
	AssignmentRoleTelesales AssignmentRole = "telesales"
)

// AssignmentRoleFor derives the assignment tag from an agent role.
func AssignmentRoleFor(role AgentRole) AssignmentRole {
	if role == AgentRoleTelesales {
		return AssignmentRoleTelesales
	}
	return AssignmentRoleMember
}

// Assignment links a lead to an agent. One row per assignment; rows are never
// deleted, so counting them per agent yields the lifetime load used for
// balancing.
type Assignment struct {
	ID        string
	LeadID    string
	AgentID   string
	Role      AssignmentRole
	CreatedAt time.Time
}
