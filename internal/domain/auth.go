package domain

import "time"

// SubjectType identifies the kind of authenticated principal.
type SubjectType string

const (
	SubjectTypeAgent SubjectType = "AGENT"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *AgentRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
