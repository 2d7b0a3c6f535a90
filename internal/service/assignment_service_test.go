package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm-service/internal/balancer"
	"github.com/spec-kit/lead-crm-service/internal/domain"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

func salesAgent(id string, available bool) domain.Agent {
	return domain.Agent{
		ID:        id,
		Name:      "Agent " + id,
		Email:     id + "@example.com",
		Role:      domain.AgentRoleSales,
		Available: available,
	}
}

func newTestAssignmentService(leads *fakeLeadRepo, agents *fakeAgentRepo, assignments *fakeAssignmentRepo) *AssignmentService {
	return NewAssignmentService(AssignmentDependencies{
		LeadRepo:       leads,
		AgentRepo:      agents,
		AssignmentRepo: assignments,
		ActivityRepo:   &fakeActivityRepo{},
		Balancer:       balancer.NewWithSeed(1),
		Logger:         zap.NewNop(),
	})
}

func TestAutoAssignLeadPicksLeastLoaded(t *testing.T) {
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew})
	agents := newFakeAgentRepo(salesAgent("busy", true), salesAgent("idle", true))
	assignments := newFakeAssignmentRepo()
	require.NoError(t, assignments.Create(context.Background(), &domain.Assignment{LeadID: "old-1", AgentID: "busy"}))
	require.NoError(t, assignments.Create(context.Background(), &domain.Assignment{LeadID: "old-2", AgentID: "busy"}))

	svc := newTestAssignmentService(leads, agents, assignments)

	lead, err := svc.AutoAssignLead(context.Background(), "lead-1", AssignOptions{})
	require.NoError(t, err)
	require.NotNil(t, lead.AssignedTo)
	assert.Equal(t, "idle", *lead.AssignedTo)
	assert.NotNil(t, lead.AssignedAt)
	assert.Equal(t, 1, assignments.countFor("idle"))
}

func TestAutoAssignLeadEmptyPoolConflicts(t *testing.T) {
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew})
	svc := newTestAssignmentService(leads, newFakeAgentRepo(), newFakeAssignmentRepo())

	_, err := svc.AutoAssignLead(context.Background(), "lead-1", AssignOptions{})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", domainErr.Code)

	stored, getErr := leads.GetByID(context.Background(), "lead-1")
	require.NoError(t, getErr)
	assert.Nil(t, stored.AssignedTo, "lead must remain unassigned when no pool exists")
}

func TestAutoAssignLeadAlreadyAssignedIsNoOp(t *testing.T) {
	owner := "idle"
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew, AssignedTo: &owner})
	agents := newFakeAgentRepo(salesAgent("idle", true), salesAgent("other", true))
	assignments := newFakeAssignmentRepo()
	svc := newTestAssignmentService(leads, agents, assignments)

	lead, err := svc.AutoAssignLead(context.Background(), "lead-1", AssignOptions{})
	require.NoError(t, err)
	require.NotNil(t, lead.AssignedTo)
	assert.Equal(t, "idle", *lead.AssignedTo)
	assert.Empty(t, assignments.rows, "re-invocation must not add assignment rows")
}

func TestAutoAssignLeadSkipsUnavailableAgents(t *testing.T) {
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew})
	agents := newFakeAgentRepo(salesAgent("on-leave", false), salesAgent("working", true))
	svc := newTestAssignmentService(leads, agents, newFakeAssignmentRepo())

	lead, err := svc.AutoAssignLead(context.Background(), "lead-1", AssignOptions{})
	require.NoError(t, err)
	assert.Equal(t, "working", *lead.AssignedTo)
}

func TestAutoAssignLeadIncludeUnavailablePool(t *testing.T) {
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew})
	agents := newFakeAgentRepo(salesAgent("on-leave", false))
	svc := newTestAssignmentService(leads, agents, newFakeAssignmentRepo())

	_, err := svc.AutoAssignLead(context.Background(), "lead-1", AssignOptions{})
	require.Error(t, err, "default pool excludes on-leave agents")

	lead, err := svc.AutoAssignLead(context.Background(), "lead-1", AssignOptions{IncludeUnavailable: true})
	require.NoError(t, err)
	assert.Equal(t, "on-leave", *lead.AssignedTo)
}

func TestAutoAssignLeadUnknownLead(t *testing.T) {
	svc := newTestAssignmentService(newFakeLeadRepo(), newFakeAgentRepo(salesAgent("a", true)), newFakeAssignmentRepo())

	_, err := svc.AutoAssignLead(context.Background(), "missing", AssignOptions{})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestBulkAssignRoundRobinOrder(t *testing.T) {
	var leadPtrs []*domain.Lead
	var leadIDs []string
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("lead-%d", i)
		leadPtrs = append(leadPtrs, &domain.Lead{ID: id, Status: domain.LeadStatusNew})
		leadIDs = append(leadIDs, id)
	}
	leads := newFakeLeadRepo(leadPtrs...)
	agents := newFakeAgentRepo(salesAgent("a", true), salesAgent("b", true))
	svc := newTestAssignmentService(leads, agents, newFakeAssignmentRepo())

	result, err := svc.BulkAssign(context.Background(), nil, leadIDs, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 6, result.Requested)
	assert.Equal(t, 6, result.Assigned)

	for i, id := range leadIDs {
		lead, err := leads.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, lead.AssignedTo)
		want := []string{"a", "b"}[i%2]
		assert.Equal(t, want, *lead.AssignedTo, "lead %s", id)
	}
}

func TestBulkAssignContinuesPastFailures(t *testing.T) {
	var leadPtrs []*domain.Lead
	var leadIDs []string
	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("lead-%d", i)
		leadPtrs = append(leadPtrs, &domain.Lead{ID: id, Status: domain.LeadStatusNew})
		leadIDs = append(leadIDs, id)
	}
	leads := newFakeLeadRepo(leadPtrs...)
	agents := newFakeAgentRepo(salesAgent("a", true), salesAgent("b", true), salesAgent("c", true))
	assignments := newFakeAssignmentRepo()
	assignments.failLeads["lead-4"] = true

	svc := newTestAssignmentService(leads, agents, assignments)

	result, err := svc.BulkAssign(context.Background(), nil, leadIDs, []string{"a", "b", "c"})
	require.NoError(t, err, "a single bad lead must not fail the batch")
	assert.Equal(t, 10, result.Requested)
	assert.Equal(t, 9, result.Assigned)

	failed, getErr := leads.GetByID(context.Background(), "lead-4")
	require.NoError(t, getErr)
	assert.Nil(t, failed.AssignedTo)
}

func TestBulkAssignSkipsAssignedAndDropsIneligibleAgents(t *testing.T) {
	owner := "a"
	leads := newFakeLeadRepo(
		&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew, AssignedTo: &owner},
		&domain.Lead{ID: "lead-2", Status: domain.LeadStatusNew},
	)
	manager := domain.Agent{ID: "boss", Role: domain.AgentRoleManager, Available: true}
	agents := newFakeAgentRepo(salesAgent("a", true), salesAgent("away", false), manager)
	assignments := newFakeAssignmentRepo()
	svc := newTestAssignmentService(leads, agents, assignments)

	result, err := svc.BulkAssign(context.Background(), nil,
		[]string{"lead-1", "lead-2"}, []string{"away", "boss", "a", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Assigned)

	lead, getErr := leads.GetByID(context.Background(), "lead-2")
	require.NoError(t, getErr)
	require.NotNil(t, lead.AssignedTo)
	assert.Equal(t, "a", *lead.AssignedTo, "only the available sales agent remains in the pool")
}

func TestBulkAssignAllAgentsIneligible(t *testing.T) {
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew})
	agents := newFakeAgentRepo(salesAgent("away", false))
	svc := newTestAssignmentService(leads, agents, newFakeAssignmentRepo())

	_, err := svc.BulkAssign(context.Background(), nil, []string{"lead-1"}, []string{"away"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestReassignRecordsHistory(t *testing.T) {
	owner := "first"
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusHot, AssignedTo: &owner})
	agents := newFakeAgentRepo(salesAgent("first", true), salesAgent("second", true))
	assignments := newFakeAssignmentRepo()
	activity := &fakeActivityRepo{}
	svc := NewAssignmentService(AssignmentDependencies{
		LeadRepo:       leads,
		AgentRepo:      agents,
		AssignmentRepo: assignments,
		ActivityRepo:   activity,
		Balancer:       balancer.NewWithSeed(1),
		Logger:         zap.NewNop(),
	})

	actor := domain.Agent{ID: "boss", Role: domain.AgentRoleManager}
	lead, err := svc.Reassign(context.Background(), &actor, "lead-1", "second")
	require.NoError(t, err)
	assert.Equal(t, "second", *lead.AssignedTo)

	entries, err := activity.ListByLead(context.Background(), "lead-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionLeadReassigned, entries[0].Action)
	assert.Equal(t, domain.ActorTypeAgent, entries[0].ActorType)
	require.NotNil(t, entries[0].ActorID)
	assert.Equal(t, "boss", *entries[0].ActorID)
}

func TestReassignRejectsIneligibleAgent(t *testing.T) {
	leads := newFakeLeadRepo(&domain.Lead{ID: "lead-1", Status: domain.LeadStatusNew})
	manager := domain.Agent{ID: "boss", Role: domain.AgentRoleManager, Available: true}
	agents := newFakeAgentRepo(manager, salesAgent("away", false))
	svc := newTestAssignmentService(leads, agents, newFakeAssignmentRepo())

	_, err := svc.Reassign(context.Background(), nil, "lead-1", "boss")
	require.Error(t, err, "manager role cannot receive leads")

	_, err = svc.Reassign(context.Background(), nil, "lead-1", "away")
	require.Error(t, err, "unavailable agent cannot receive leads")
}
