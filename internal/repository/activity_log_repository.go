package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm-service/internal/domain"
)

// ActivityLogRepository stores audit entries.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByLead(ctx context.Context, leadID string) ([]domain.ActivityLog, error)
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (lead_id, actor_type, actor_id, action, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.LeadID,
		entry.ActorType,
		entry.ActorID,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) ListByLead(ctx context.Context, leadID string) ([]domain.ActivityLog, error) {
	const query = `
        SELECT id, lead_id, actor_type, actor_id, action, old_value, new_value, created_at
        FROM activity_logs WHERE lead_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLog
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.LeadID,
			&entry.ActorType,
			&entry.ActorID,
			&entry.Action,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
