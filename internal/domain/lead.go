package domain

import "time"

// LeadStatus enumerates lifecycle states for leads.
type LeadStatus string

const (
	LeadStatusNew           LeadStatus = "new"
	LeadStatusHot           LeadStatus = "hot"
	LeadStatusWarm          LeadStatus = "warm"
	LeadStatusCold          LeadStatus = "cold"
	LeadStatusNotInterested LeadStatus = "not_interested"
	LeadStatusConverted     LeadStatus = "converted"
)

// Valid reports whether the status is a known lifecycle state.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusHot, LeadStatusWarm, LeadStatusCold, LeadStatusNotInterested, LeadStatusConverted:
		return true
	}
	return false
}

// LeadSource enumerates capture channels.
type LeadSource string

const (
	LeadSourceWebsite LeadSource = "website"
	LeadSourceChatbot LeadSource = "chatbot"
	LeadSourceWebhook LeadSource = "webhook"
	LeadSourceImport  LeadSource = "import"
	LeadSourceManual  LeadSource = "manual"
)

// Valid reports whether the source is a known capture channel.
func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceWebsite, LeadSourceChatbot, LeadSourceWebhook, LeadSourceImport, LeadSourceManual:
		return true
	}
	return false
}

// Lead is a prospective customer captured from a form, chatbot or webhook.
// Leads are never hard-deleted; a failed auto-assignment leaves AssignedTo nil.
type Lead struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Interest   string
	Message    string
	Source     LeadSource
	Status     LeadStatus
	AssignedTo *string
	AssignedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
