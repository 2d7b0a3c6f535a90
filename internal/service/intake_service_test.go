package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm-service/internal/domain"
	"github.com/spec-kit/lead-crm-service/internal/events"
)

func newTestIntakeService(t *testing.T, leads *fakeLeadRepo, agents *fakeAgentRepo, integration *fakeIntegrationRepo) *IntakeService {
	t.Helper()
	assignments := newFakeAssignmentRepo()
	leadService := NewLeadService(LeadDependencies{
		LeadRepo:       leads,
		AgentRepo:      agents,
		AssignmentRepo: assignments,
		ActivityRepo:   &fakeActivityRepo{},
		Dispatcher:     events.NewInMemoryDispatcher(),
	})
	return NewIntakeService(IntakeDependencies{
		LeadService:     leadService,
		Assignment:      newTestAssignmentService(leads, agents, assignments),
		IntegrationRepo: integration,
		Logger:          zap.NewNop(),
		Token:           "secret-token",
	})
}

func TestAuthorize(t *testing.T) {
	svc := newTestIntakeService(t, newFakeLeadRepo(), newFakeAgentRepo(), &fakeIntegrationRepo{})

	assert.True(t, svc.Authorize("secret-token"))
	assert.False(t, svc.Authorize("wrong"))
	assert.False(t, svc.Authorize(""))
}

func TestAuthorizeUnsetSecretRejectsAll(t *testing.T) {
	svc := NewIntakeService(IntakeDependencies{Logger: zap.NewNop()})
	assert.False(t, svc.Authorize(""))
	assert.False(t, svc.Authorize("anything"))
}

func TestNormalizePayloadResolvesAliases(t *testing.T) {
	input := NormalizePayload(map[string]any{
		"full_name":    "Jane Buyer",
		"mail":         "jane@example.com",
		"whatsapp":     "+971500000000",
		"project":      "Marina Towers",
		"enquiry":      "interested in a 2BR",
		"budget":       250000,
		"extra_field":  "ignored",
		"contact_name": "shadowed by full_name",
	})

	assert.Equal(t, "Jane Buyer", input.Name)
	assert.Equal(t, "jane@example.com", input.Email)
	assert.Equal(t, "+971500000000", input.Phone)
	assert.Equal(t, "Marina Towers", input.Interest)
	assert.Equal(t, "interested in a 2BR", input.Message)
	assert.Equal(t, domain.LeadSourceWebhook, input.Source)
}

func TestNormalizePayloadIgnoresNonStrings(t *testing.T) {
	input := NormalizePayload(map[string]any{
		"name":  42,
		"email": map[string]any{"nested": true},
		"phone": "0500000000",
	})

	assert.Empty(t, input.Name)
	assert.Empty(t, input.Email)
	assert.Equal(t, "0500000000", input.Phone)
}

func TestIngestLeadRecordsRejection(t *testing.T) {
	integration := &fakeIntegrationRepo{}
	svc := newTestIntakeService(t, newFakeLeadRepo(), newFakeAgentRepo(), integration)

	_, err := svc.IngestLead(context.Background(), "lead-webhook", map[string]any{
		"name": "No Email Provided",
	})
	require.Error(t, err)

	require.Len(t, integration.entries, 1)
	assert.Equal(t, domain.IntegrationOutcomeRejected, integration.entries[0].Outcome)
	assert.Nil(t, integration.entries[0].LeadID)
}

func TestIngestLeadAcceptsAndLogs(t *testing.T) {
	integration := &fakeIntegrationRepo{}
	leads := newFakeLeadRepo()
	agents := newFakeAgentRepo(salesAgent("rep", true))
	svc := newTestIntakeService(t, leads, agents, integration)

	lead, err := svc.IngestLead(context.Background(), "lead-webhook", map[string]any{
		"name":  "Walk In",
		"email": "walkin@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusNew, lead.Status)
	assert.Equal(t, domain.LeadSourceWebhook, lead.Source)

	require.Len(t, integration.entries, 1)
	assert.Equal(t, domain.IntegrationOutcomeAccepted, integration.entries[0].Outcome)
	require.NotNil(t, integration.entries[0].LeadID)
	assert.Equal(t, lead.ID, *integration.entries[0].LeadID)
}
