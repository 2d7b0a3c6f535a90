package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm-service/internal/domain"
)

// IntegrationLogRepository records inbound webhook outcomes.
type IntegrationLogRepository interface {
	Create(ctx context.Context, entry *domain.IntegrationLog) error
}

type integrationLogRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrationLogRepository builds repository.
func NewIntegrationLogRepository(pool *pgxpool.Pool) IntegrationLogRepository {
	return &integrationLogRepository{pool: pool}
}

func (r *integrationLogRepository) Create(ctx context.Context, entry *domain.IntegrationLog) error {
	const query = `
        INSERT INTO integration_logs (source, outcome, status_code, lead_id, detail)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.Source,
		entry.Outcome,
		entry.StatusCode,
		entry.LeadID,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}
