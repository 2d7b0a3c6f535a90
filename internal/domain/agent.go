package domain

import "time"

// AgentRole enumerates internal operator roles.
type AgentRole string

const (
	AgentRoleAdmin     AgentRole = "ADMIN"
	AgentRoleManager   AgentRole = "MANAGER"
	AgentRoleSales     AgentRole = "SALES"
	AgentRoleTelesales AgentRole = "TELESALES"
)

// Assignable reports whether the role may receive leads.
func (r AgentRole) Assignable() bool {
	return r == AgentRoleSales || r == AgentRoleTelesales
}

// Agent models a sales or telesales team member, or an administrator.
// Available is false while the agent is on leave; unavailable agents are
// excluded from auto-assignment on the form and admin paths.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	Available    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
