package pgrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// ContributionRepo is the Postgres-backed ContributionRepository (C3
// Contribution Ledger).
type ContributionRepo struct {
	pool *pgxpool.Pool
}

func NewContributionRepo(pool *pgxpool.Pool) *ContributionRepo {
	return &ContributionRepo{pool: pool}
}

const contributionColumns = `id, agent_id, project_id, pr_number, commit_sha, status, bug_count, longevity_bonus_paid, dependent_prs_count, merged_at, reverted_at, replaced_at, created_at`

func scanContribution(row pgx.Row) (*domain.CodeContribution, error) {
	var c domain.CodeContribution
	if err := row.Scan(
		&c.ID, &c.AgentID, &c.ProjectID, &c.PRNumber, &c.CommitSHA, &c.Status,
		&c.BugCount, &c.LongevityBonusPaid, &c.DependentPRsCount,
		&c.MergedAt, &c.RevertedAt, &c.ReplacedAt, &c.CreatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContributionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.CodeContribution, error) {
	c, err := scanContribution(r.pool.QueryRow(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, id))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying contribution by id")
	}
	return c, nil
}

func (r *ContributionRepo) FindByCommitSHA(ctx context.Context, sha string) (*domain.CodeContribution, error) {
	c, err := scanContribution(r.pool.QueryRow(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE commit_sha = $1`, sha))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying contribution by commit sha")
	}
	return c, nil
}

func (r *ContributionRepo) FindByPR(ctx context.Context, projectID uuid.UUID, prNumber int64) (*domain.CodeContribution, error) {
	c, err := scanContribution(r.pool.QueryRow(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE project_id = $1 AND pr_number = $2`, projectID, prNumber))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying contribution by pr")
	}
	return c, nil
}

func (r *ContributionRepo) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.CodeContribution, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE agent_id = $1 ORDER BY merged_at DESC`, agentID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying contributions by agent")
	}
	defer rows.Close()
	return collectContributions(rows)
}

func (r *ContributionRepo) FindEligibleForLongevityBonus(ctx context.Context, threshold time.Time) ([]domain.CodeContribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contributionColumns+` FROM contributions
		WHERE status = $1 AND longevity_bonus_paid = false AND merged_at <= $2
		ORDER BY merged_at ASC`,
		domain.ContributionHealthy, threshold,
	)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying longevity-eligible contributions")
	}
	defer rows.Close()
	return collectContributions(rows)
}

func collectContributions(rows pgx.Rows) ([]domain.CodeContribution, error) {
	var out []domain.CodeContribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning contribution row")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ContributionRepo) Create(ctx context.Context, nc *domain.NewCodeContribution) (*domain.CodeContribution, error) {
	c, err := scanContribution(r.pool.QueryRow(ctx, `
		INSERT INTO contributions (id, agent_id, project_id, pr_number, commit_sha, status, merged_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+contributionColumns,
		uuid.New(), nc.AgentID, nc.ProjectID, nc.PRNumber, nc.CommitSHA, domain.ContributionHealthy, nc.MergedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("a contribution with this commit sha already exists")
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating contribution")
	}
	return c, nil
}

// UpdateStatus is atomic: it sets status and the appropriate
// reverted_at/replaced_at column in a single statement so a concurrent
// reader never observes status=reverted with reverted_at still null.
func (r *ContributionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContributionStatus, at time.Time) error {
	var query string
	switch status {
	case domain.ContributionReverted:
		query = `UPDATE contributions SET status = $2, reverted_at = $3 WHERE id = $1`
	case domain.ContributionReplaced:
		query = `UPDATE contributions SET status = $2, replaced_at = $3 WHERE id = $1`
	default:
		query = `UPDATE contributions SET status = $2 WHERE id = $1`
	}
	tag, err := r.pool.Exec(ctx, query, id, status, at)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "updating contribution status")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("contribution not found")
	}
	return nil
}

func (r *ContributionRepo) MarkLongevityBonusPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contributions SET longevity_bonus_paid = true WHERE id = $1`, id)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "marking longevity bonus paid")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("contribution not found")
	}
	return nil
}

func (r *ContributionRepo) IncrementBugCount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contributions SET bug_count = bug_count + 1 WHERE id = $1`, id)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "incrementing contribution bug count")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("contribution not found")
	}
	return nil
}

func (r *ContributionRepo) IncrementDependentPRs(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contributions SET dependent_prs_count = dependent_prs_count + 1 WHERE id = $1`, id)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "incrementing contribution dependent pr count")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("contribution not found")
	}
	return nil
}
