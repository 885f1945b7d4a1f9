package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// TicketSLAHistoryRepository stores SLA audit entries.
type TicketSLAHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketSLAHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketSLAHistory, error)
}

type ticketSLAHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketSLAHistoryRepository builds repository.
func NewTicketSLAHistoryRepository(pool *pgxpool.Pool) TicketSLAHistoryRepository {
	return &ticketSLAHistoryRepository{pool: pool}
}

func (r *ticketSLAHistoryRepository) Create(ctx context.Context, history *domain.TicketSLAHistory) error {
	const query = `
        INSERT INTO ticket_sla_history (ticket_id, changed_by_type, changed_by_id, change_type, details)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.TicketID,
		string(history.ChangedByType),
		history.ChangedByID,
		string(history.ChangeType),
		history.Details,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketSLAHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketSLAHistory, error) {
	const query = `
        SELECT id, ticket_id, changed_by_type, changed_by_id, change_type, details, created_at
        FROM ticket_sla_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketSLAHistory{}
	for rows.Next() {
		var (
			history    domain.TicketSLAHistory
			changedBy  string
			changeType string
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&changedBy,
			&history.ChangedByID,
			&changeType,
			&history.Details,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.ChangedByType = domain.SubjectType(changedBy)
		history.ChangeType = domain.SLAChangeType(changeType)
		result = append(result, history)
	}
	return result, rows.Err()
}
