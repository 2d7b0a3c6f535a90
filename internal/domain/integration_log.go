package domain

import "time"

// IntegrationOutcome classifies a webhook intake attempt.
type IntegrationOutcome string

const (
	IntegrationOutcomeAccepted     IntegrationOutcome = "accepted"
	IntegrationOutcomeRejected     IntegrationOutcome = "rejected"
	IntegrationOutcomeUnauthorized IntegrationOutcome = "unauthorized"
)

// IntegrationLog records the outcome of an inbound webhook request.
type IntegrationLog struct {
	ID         string
	Source     string
	Outcome    IntegrationOutcome
	StatusCode int
	LeadID     *string
	Detail     string
	CreatedAt  time.Time
}
