package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm-service/internal/domain"
)

// AssignmentRepository stores lead-to-agent link rows. Rows are insert-only;
// counting them per agent yields the lifetime load used for balancing.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	ListByLead(ctx context.Context, leadID string) ([]domain.Assignment, error)
	CountByAgents(ctx context.Context, agentIDs []string) (map[string]int, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository builds repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (lead_id, agent_id, role)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		assignment.LeadID,
		assignment.AgentID,
		assignment.Role,
	).Scan(&assignment.ID, &assignment.CreatedAt)
}

func (r *assignmentRepository) ListByLead(ctx context.Context, leadID string) ([]domain.Assignment, error) {
	const query = `
        SELECT id, lead_id, agent_id, role, created_at
        FROM assignments WHERE lead_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		var assignment domain.Assignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.LeadID,
			&assignment.AgentID,
			&assignment.Role,
			&assignment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}

// CountByAgents returns assignment row counts grouped by agent. Agents with no
// rows are absent from the map; callers default them to zero.
func (r *assignmentRepository) CountByAgents(ctx context.Context, agentIDs []string) (map[string]int, error) {
	const query = `
        SELECT agent_id, COUNT(*) FROM assignments
        WHERE agent_id = ANY($1)
        GROUP BY agent_id`
	rows, err := r.pool.Query(ctx, query, agentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int, len(agentIDs))
	for rows.Next() {
		var agentID string
		var count int
		if err := rows.Scan(&agentID, &count); err != nil {
			return nil, err
		}
		counts[agentID] = count
	}
	return counts, rows.Err()
}
