package balancer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickLeastLoadedNeverPicksLoadedCandidate(t *testing.T) {
	b := NewWithSeed(1)
	candidates := []Candidate{
		{ID: "a", Load: 2},
		{ID: "b", Load: 0},
		{ID: "c", Load: 0},
		{ID: "d", Load: 3},
	}

	picks := make(map[string]int)
	for i := 0; i < 1000; i++ {
		id, err := b.PickLeastLoaded(candidates)
		require.NoError(t, err)
		picks[id]++
	}

	assert.Zero(t, picks["a"], "candidate with load 2 must never be chosen")
	assert.Zero(t, picks["d"], "candidate with load 3 must never be chosen")
	// Tie-break must be non-degenerate across the two zero-load candidates.
	assert.Greater(t, picks["b"], 0)
	assert.Greater(t, picks["c"], 0)
}

func TestPickLeastLoadedSingleCandidate(t *testing.T) {
	b := NewWithSeed(42)
	id, err := b.PickLeastLoaded([]Candidate{{ID: "only", Load: 99}})
	require.NoError(t, err)
	assert.Equal(t, "only", id)
}

func TestPickLeastLoadedEmptyPool(t *testing.T) {
	b := New()
	_, err := b.PickLeastLoaded(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestPickLeastLoadedDoesNotMutateInput(t *testing.T) {
	b := NewWithSeed(7)
	candidates := []Candidate{
		{ID: "x", Load: 5},
		{ID: "y", Load: 1},
	}
	_, err := b.PickLeastLoaded(candidates)
	require.NoError(t, err)
	assert.Equal(t, "x", candidates[0].ID)
	assert.Equal(t, "y", candidates[1].ID)
}

func TestDistributeRoundRobinCyclicOrder(t *testing.T) {
	agents := []string{"A", "B", "C", "D", "E"}
	leads := make([]string, 12)
	for i := range leads {
		leads[i] = fmt.Sprintf("lead-%d", i)
	}

	pairs, err := DistributeRoundRobin(leads, agents)
	require.NoError(t, err)
	require.Len(t, pairs, 12)

	want := []string{"A", "B", "C", "D", "E", "A", "B", "C", "D", "E", "A", "B"}
	for i, pair := range pairs {
		assert.Equal(t, leads[i], pair.LeadID)
		assert.Equal(t, want[i], pair.AgentID, "lead %d", i)
	}
}

func TestDistributeRoundRobinEmptyPool(t *testing.T) {
	_, err := DistributeRoundRobin([]string{"lead-1"}, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestDistributeRoundRobinNoLeads(t *testing.T) {
	pairs, err := DistributeRoundRobin(nil, []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
