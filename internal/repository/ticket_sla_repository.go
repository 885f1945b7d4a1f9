package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// TicketSLARepository persists the SLA stamped on each ticket.
type TicketSLARepository interface {
	Upsert(ctx context.Context, sla *domain.TicketSLA) error
	Get(ctx context.Context, ticketID string) (*domain.TicketSLA, error)
	// ListPendingEscalations returns open records that still have an un-notified level, earliest
	// due first.
	ListPendingEscalations(ctx context.Context, limit int) ([]domain.TicketSLA, error)
	// MarkNotified raises the highest notified escalation level; it never lowers it.
	MarkNotified(ctx context.Context, ticketID string, level int) error
}

type ticketSLARepository struct {
	pool *pgxpool.Pool
}

// NewTicketSLARepository instantiates repository.
func NewTicketSLARepository(pool *pgxpool.Pool) TicketSLARepository {
	return &ticketSLARepository{pool: pool}
}

const ticketSLAColumns = `ticket_id, priority, status, started_at, sla_hours, use_operational_hours,
               include_holidays, due_at, levels, notified_level, created_at, updated_at`

func (r *ticketSLARepository) Upsert(ctx context.Context, sla *domain.TicketSLA) error {
	levels, err := json.Marshal(sla.Levels)
	if err != nil {
		return fmt.Errorf("encode escalation levels: %w", err)
	}
	// Restamping resets the notified level so the new plan is worked from the start.
	const query = `
        INSERT INTO ticket_slas (ticket_id, priority, status, started_at, sla_hours, use_operational_hours,
                                 include_holidays, due_at, levels, notified_level)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0)
        ON CONFLICT (ticket_id) DO UPDATE SET
            priority=EXCLUDED.priority, status=EXCLUDED.status, started_at=EXCLUDED.started_at,
            sla_hours=EXCLUDED.sla_hours, use_operational_hours=EXCLUDED.use_operational_hours,
            include_holidays=EXCLUDED.include_holidays, due_at=EXCLUDED.due_at, levels=EXCLUDED.levels,
            notified_level=0, updated_at=NOW()
        RETURNING notified_level, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		sla.TicketID,
		sla.Priority,
		sla.Status,
		sla.StartedAt,
		sla.SLAHours,
		sla.UseOperationalHours,
		sla.IncludeHolidays,
		sla.DueAt,
		levels,
	).Scan(&sla.NotifiedLevel, &sla.CreatedAt, &sla.UpdatedAt)
}

func (r *ticketSLARepository) Get(ctx context.Context, ticketID string) (*domain.TicketSLA, error) {
	query := `SELECT ` + ticketSLAColumns + ` FROM ticket_slas WHERE ticket_id=$1`
	sla, err := scanTicketSLA(r.pool.QueryRow(ctx, query, ticketID))
	if err != nil {
		return nil, err
	}
	return &sla, nil
}

func (r *ticketSLARepository) ListPendingEscalations(ctx context.Context, limit int) ([]domain.TicketSLA, error) {
	if limit <= 0 {
		limit = 500
	}
	query := `SELECT ` + ticketSLAColumns + `
        FROM ticket_slas
        WHERE status NOT IN ('RESOLVED', 'CLOSED', 'CANCELLED')
          AND notified_level < (
              SELECT COALESCE(MAX((l->>'level')::int), 0)
              FROM jsonb_array_elements(levels) AS l)
        ORDER BY due_at ASC, ticket_id ASC
        LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TicketSLA
	for rows.Next() {
		sla, err := scanTicketSLA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sla)
	}
	return out, rows.Err()
}

func (r *ticketSLARepository) MarkNotified(ctx context.Context, ticketID string, level int) error {
	const query = `
        UPDATE ticket_slas SET notified_level=$2, updated_at=NOW()
        WHERE ticket_id=$1 AND notified_level < $2`
	_, err := r.pool.Exec(ctx, query, ticketID, level)
	return err
}

func scanTicketSLA(row pgx.Row) (domain.TicketSLA, error) {
	var (
		sla      domain.TicketSLA
		priority string
		status   string
		levels   []byte
	)
	if err := row.Scan(
		&sla.TicketID,
		&priority,
		&status,
		&sla.StartedAt,
		&sla.SLAHours,
		&sla.UseOperationalHours,
		&sla.IncludeHolidays,
		&sla.DueAt,
		&levels,
		&sla.NotifiedLevel,
		&sla.CreatedAt,
		&sla.UpdatedAt,
	); err != nil {
		return domain.TicketSLA{}, err
	}
	sla.Priority = domain.TicketPriority(priority)
	sla.Status = domain.TicketStatus(status)
	if len(levels) > 0 {
		if err := json.Unmarshal(levels, &sla.Levels); err != nil {
			return domain.TicketSLA{}, fmt.Errorf("decode escalation levels for %s: %w", sla.TicketID, err)
		}
	}
	return sla, nil
}
