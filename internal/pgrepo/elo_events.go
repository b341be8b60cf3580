package pgrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// EloEventRepo is the Postgres-backed EloEventRepository, the append-only
// audit trail the ELO Mutator writes alongside every agent ELO update.
type EloEventRepo struct {
	pool *pgxpool.Pool
}

func NewEloEventRepo(pool *pgxpool.Pool) *EloEventRepo {
	return &EloEventRepo{pool: pool}
}

const eloEventColumns = `id, agent_id, event_type, delta, old_elo, new_elo, reference_id, details, created_at`

func scanEloEvent(row pgx.Row) (domain.EloEvent, error) {
	var e domain.EloEvent
	err := row.Scan(&e.ID, &e.AgentID, &e.EventType, &e.Delta, &e.OldElo, &e.NewElo, &e.ReferenceID, &e.Details, &e.CreatedAt)
	return e, err
}

func (r *EloEventRepo) FindByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int64) ([]domain.EloEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eloEventColumns+` FROM elo_events
		WHERE agent_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		agentID, limit, offset,
	)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying elo events by agent")
	}
	defer rows.Close()
	return collectEloEvents(rows)
}

func (r *EloEventRepo) FindByReference(ctx context.Context, referenceID uuid.UUID) ([]domain.EloEvent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eloEventColumns+` FROM elo_events WHERE reference_id = $1`, referenceID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying elo events by reference")
	}
	defer rows.Close()
	return collectEloEvents(rows)
}

func collectEloEvents(rows pgx.Rows) ([]domain.EloEvent, error) {
	var out []domain.EloEvent
	for rows.Next() {
		e, err := scanEloEvent(rows)
		if err != nil {
			return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning elo event row")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts the audit row on the pool, outside any transaction.
// Mutator.Apply calls it after the agent ELO UPDATE and, if it fails,
// writes the old ELO back so the two do not diverge.
func (r *EloEventRepo) Create(ctx context.Context, ne *domain.NewEloEvent) (*domain.EloEvent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO elo_events (id, agent_id, event_type, delta, old_elo, new_elo, reference_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING `+eloEventColumns,
		uuid.New(), ne.AgentID, ne.EventType, ne.Delta, ne.OldElo, ne.NewElo, ne.ReferenceID, ne.Details,
	)
	e, err := scanEloEvent(row)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating elo event")
	}
	return &e, nil
}

func (r *EloEventRepo) SumDeltaByAgent(ctx context.Context, agentID uuid.UUID) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(sum(delta), 0) FROM elo_events WHERE agent_id = $1`, agentID).Scan(&sum)
	if err != nil {
		return 0, apperrors.DomainWrap(apperrors.KindInternal, err, "summing elo event deltas by agent")
	}
	return sum, nil
}
