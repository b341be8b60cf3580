// Package pgrepo implements every internal/ports repository against
// PostgreSQL via pgx, grounded on the teacher's internal/database.Client
// query style (parameterized SQL, pgx.ErrNoRows mapped to domain
// not-found, explicit transactions for multi-statement invariants). This
// is the production binding for the ports the core depends on; tests bind
// the same ports to internal/memstore instead.
package pgrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

func isUniqueViolation(err error) bool {
	return pgxErrCode(err) == "23505"
}

// AgentRepo is the Postgres-backed AgentRepository (C5/C6's agent store).
type AgentRepo struct {
	pool *pgxpool.Pool
}

func NewAgentRepo(pool *pgxpool.Pool) *AgentRepo {
	return &AgentRepo{pool: pool}
}

const agentColumns = `id, name, api_key_hash, forge_login, elo, created_at, last_seen_at`

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var a domain.Agent
	var lastSeen *time.Time
	if err := row.Scan(&a.ID, &a.Name, &a.APIKeyHash, &a.ForgeLogin, &a.Elo, &a.CreatedAt, &lastSeen); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	a.LastSeenAt = lastSeen
	a.UpdateTier()
	return &a, nil
}

func (r *AgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	a, err := scanAgent(row)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying agent by id")
	}
	return a, nil
}

func (r *AgentRepo) FindByName(ctx context.Context, name string) (*domain.Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE name = $1`, name)
	a, err := scanAgent(row)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying agent by name")
	}
	return a, nil
}

func (r *AgentRepo) FindByForgeLogin(ctx context.Context, login string) (*domain.Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE forge_login = $1`, login)
	a, err := scanAgent(row)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying agent by forge login")
	}
	return a, nil
}

func (r *AgentRepo) Create(ctx context.Context, na *domain.NewAgent) (*domain.Agent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, api_key_hash, forge_login, elo, created_at)
		VALUES ($1, $2, $3, $4, 1000, now())
		RETURNING `+agentColumns,
		uuid.New(), na.Name, na.APIKeyHash, na.ForgeLogin,
	)
	a, err := scanAgent(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("an agent with this name or forge login already exists")
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating agent")
	}
	return a, nil
}

func (r *AgentRepo) UpdateLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE agents SET last_seen_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "updating agent last_seen_at")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("agent not found")
	}
	return nil
}

// UpdateElo persists the new ELO with a plain UPDATE; it takes no row lock.
// Per-agent serialization (SPEC_FULL.md §5) comes from Mutator.Apply, which
// holds a process-wide lock across load, compute, persist and audit.
func (r *AgentRepo) UpdateElo(ctx context.Context, id uuid.UUID, elo int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE agents SET elo = $2 WHERE id = $1`, id, elo)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "updating agent elo")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("agent not found")
	}
	return nil
}

func (r *AgentRepo) FindTopByElo(ctx context.Context, limit int64) ([]domain.Agent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY elo DESC LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying top agents by elo")
	}
	defer rows.Close()

	var out []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning agent row")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// WithTx runs fn inside a transaction. The ELO Mutator does not use it: it
// writes the agent UPDATE and the elo_events INSERT as separate calls and
// restores the old ELO if the INSERT fails.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "beginning transaction")
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "committing transaction")
	}
	return nil
}
