// Package balancer implements the lead distribution policies. The selection
// logic is kept free of persistence concerns: callers compute candidate loads
// from stored assignment rows and apply the chosen result themselves.
package balancer

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Policy names a distribution strategy.
type Policy string

const (
	// PolicyLeastLoaded picks the candidate with the fewest lifetime
	// assignments, breaking ties uniformly at random.
	PolicyLeastLoaded Policy = "least_loaded"
	// PolicyRoundRobin assigns the i-th lead of a batch to the agent at
	// index i modulo the pool size.
	PolicyRoundRobin Policy = "round_robin"
)

// ErrNoCandidates is returned when the eligible pool is empty.
var ErrNoCandidates = errors.New("no eligible assignees")

// Candidate is an agent eligible to receive leads, with its lifetime load.
type Candidate struct {
	ID   string
	Load int
}

// Pair maps one lead to one agent.
type Pair struct {
	LeadID  string
	AgentID string
}

// Balancer selects assignees. Safe for concurrent use.
type Balancer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Balancer seeded from the clock.
func New() *Balancer {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a Balancer with a deterministic source, for tests.
func NewWithSeed(seed int64) *Balancer {
	return &Balancer{rng: rand.New(rand.NewSource(seed))}
}

// PickLeastLoaded returns the ID of a minimum-load candidate, chosen uniformly
// at random among all candidates sharing the minimum.
func (b *Balancer) PickLeastLoaded(candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Load < sorted[j].Load
	})

	minLoad := sorted[0].Load
	ties := 1
	for ties < len(sorted) && sorted[ties].Load == minLoad {
		ties++
	}

	b.mu.Lock()
	idx := b.rng.Intn(ties)
	b.mu.Unlock()
	return sorted[idx].ID, nil
}

// DistributeRoundRobin maps the i-th lead to agentIDs[i mod len(agentIDs)],
// preserving lead order. Loads are not consulted: batch fairness is cyclic
// over the pool in its given order.
func DistributeRoundRobin(leadIDs, agentIDs []string) ([]Pair, error) {
	if len(agentIDs) == 0 {
		return nil, ErrNoCandidates
	}
	pairs := make([]Pair, 0, len(leadIDs))
	for i, leadID := range leadIDs {
		pairs = append(pairs, Pair{
			LeadID:  leadID,
			AgentID: agentIDs[i%len(agentIDs)],
		})
	}
	return pairs, nil
}
