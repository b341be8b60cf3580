package pgrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// TicketRepo is the Postgres-backed TicketRepository (supplemented module).
type TicketRepo struct {
	pool *pgxpool.Pool
}

func NewTicketRepo(pool *pgxpool.Pool) *TicketRepo {
	return &TicketRepo{pool: pool}
}

const ticketColumns = `id, project_id, title, description, status, assigned_to, created_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.AssignedTo, &t.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying ticket by id")
	}
	if t == nil {
		return nil, apperrors.NotFound("ticket not found")
	}
	return t, nil
}

func (r *TicketRepo) FindOpenByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE project_id = $1 AND status != $2`, projectID, domain.TicketClosed)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying open tickets by project")
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *TicketRepo) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE assigned_to = $1`, agentID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying tickets by agent")
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.AssignedTo, &t.CreatedAt); err != nil {
			return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning ticket row")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TicketRepo) Create(ctx context.Context, nt *domain.NewTicket) (*domain.Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `
		INSERT INTO tickets (id, project_id, title, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+ticketColumns,
		uuid.New(), nt.ProjectID, nt.Title, nt.Description, domain.TicketOpen,
	))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating ticket")
	}
	return t, nil
}

func (r *TicketRepo) Assign(ctx context.Context, id, agentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tickets SET assigned_to = $2, status = $3 WHERE id = $1`, id, agentID, domain.TicketInProgress)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "assigning ticket")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("ticket not found")
	}
	return nil
}

func (r *TicketRepo) Unassign(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tickets SET assigned_to = NULL, status = $2 WHERE id = $1`, id, domain.TicketOpen)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "unassigning ticket")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("ticket not found")
	}
	return nil
}

func (r *TicketRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TicketStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tickets SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "updating ticket status")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("ticket not found")
	}
	return nil
}

func (r *TicketRepo) Close(ctx context.Context, id uuid.UUID) error {
	return r.UpdateStatus(ctx, id, domain.TicketClosed)
}

func (r *TicketRepo) CountOpenByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tickets WHERE project_id = $1 AND status != $2`, projectID, domain.TicketClosed).Scan(&count)
	if err != nil {
		return 0, apperrors.DomainWrap(apperrors.KindInternal, err, "counting open tickets by project")
	}
	return count, nil
}
