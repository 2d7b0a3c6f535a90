package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm-service/internal/domain"
)

// LeadFilter captures admin search parameters.
type LeadFilter struct {
	Statuses    []domain.LeadStatus
	Sources     []domain.LeadSource
	AssignedTo  *string
	Unassigned  bool
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// LeadRepository encapsulates lead persistence.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
	SetAssignment(ctx context.Context, leadID, agentID string, at time.Time) error
	CountByStatus(ctx context.Context) (map[domain.LeadStatus]int, error)
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (name, email, phone, interest, message, source, status, assigned_to, assigned_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Interest,
		lead.Message,
		lead.Source,
		lead.Status,
		lead.AssignedTo,
		lead.AssignedAt,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET name=$1, email=$2, phone=$3, interest=$4, message=$5,
            source=$6, status=$7, assigned_to=$8, assigned_at=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Interest,
		lead.Message,
		lead.Source,
		lead.Status,
		lead.AssignedTo,
		lead.AssignedAt,
		lead.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	const query = `
        SELECT id, name, email, phone, interest, message, source, status,
               assigned_to, assigned_at, created_at, updated_at
        FROM leads WHERE id=$1`
	var lead domain.Lead
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Interest,
		&lead.Message,
		&lead.Source,
		&lead.Status,
		&lead.AssignedTo,
		&lead.AssignedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}

// SetAssignment writes only the assignment fields, leaving contact data untouched.
func (r *leadRepository) SetAssignment(ctx context.Context, leadID, agentID string, at time.Time) error {
	const query = `
        UPDATE leads SET assigned_to=$1, assigned_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, agentID, at, leadID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	base := `SELECT id, name, email, phone, interest, message, source, status,
                    assigned_to, assigned_at, created_at, updated_at
             FROM leads`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Sources) > 0 {
		placeholders := make([]string, len(filter.Sources))
		for i, source := range filter.Sources {
			args = append(args, source)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("source IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_to IS NULL")
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s OR phone LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM leads GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.LeadStatus]int)
	for rows.Next() {
		var status domain.LeadStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var result []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.Name,
			&lead.Email,
			&lead.Phone,
			&lead.Interest,
			&lead.Message,
			&lead.Source,
			&lead.Status,
			&lead.AssignedTo,
			&lead.AssignedAt,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, lead)
	}
	return result, rows.Err()
}
