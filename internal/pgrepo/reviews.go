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

// ReviewRepo is the Postgres-backed ReviewRepository (C4 Review Ledger).
type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

const reviewColumns = `id, project_id, pr_number, reviewer_agent_id, reviewed_agent_id, verdict, reviewer_elo_at_time, created_at`

func scanReview(row pgx.Row) (domain.AgentReview, error) {
	var r domain.AgentReview
	err := row.Scan(&r.ID, &r.ProjectID, &r.PRNumber, &r.ReviewerAgentID, &r.ReviewedAgentID, &r.Verdict, &r.ReviewerEloAtTime, &r.CreatedAt)
	return r, err
}

func (r *ReviewRepo) FindByPR(ctx context.Context, projectID uuid.UUID, prNumber int64) ([]domain.AgentReview, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE project_id = $1 AND pr_number = $2`, projectID, prNumber)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying reviews by pr")
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (r *ReviewRepo) FindByReviewer(ctx context.Context, agentID uuid.UUID) ([]domain.AgentReview, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE reviewer_agent_id = $1`, agentID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying reviews by reviewer")
	}
	defer rows.Close()
	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]domain.AgentReview, error) {
	var out []domain.AgentReview
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning review row")
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepo) CountByReviewerSince(ctx context.Context, agentID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reviews WHERE reviewer_agent_id = $1 AND created_at >= $2`, agentID, since).Scan(&count)
	if err != nil {
		return 0, apperrors.DomainWrap(apperrors.KindInternal, err, "counting reviews by reviewer since")
	}
	return count, nil
}

func (r *ReviewRepo) ExistsForPRAndReviewer(ctx context.Context, projectID uuid.UUID, prNumber int64, reviewerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM reviews WHERE project_id = $1 AND pr_number = $2 AND reviewer_agent_id = $3)`,
		projectID, prNumber, reviewerID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.DomainWrap(apperrors.KindInternal, err, "checking review existence")
	}
	return exists, nil
}

func (r *ReviewRepo) Create(ctx context.Context, nr *domain.NewAgentReview) (*domain.AgentReview, error) {
	if nr.ReviewerAgentID == nr.ReviewedAgentID {
		return nil, apperrors.Validation("reviewer cannot equal reviewed")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, project_id, pr_number, reviewer_agent_id, reviewed_agent_id, verdict, reviewer_elo_at_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING `+reviewColumns,
		uuid.New(), nr.ProjectID, nr.PRNumber, nr.ReviewerAgentID, nr.ReviewedAgentID, nr.Verdict, nr.ReviewerEloAtTime,
	)
	rv, err := scanReview(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("review already exists for this (project, pr, reviewer)")
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating review")
	}
	return &rv, nil
}

// RejectionTrackerRepo is the Postgres-backed RejectionTracker, counting
// repeat PR rejections for the same (project, pr) pair (supplemented
// module: see SPEC_FULL.md "Rejection-count tracking").
type RejectionTrackerRepo struct {
	pool *pgxpool.Pool
}

func NewRejectionTrackerRepo(pool *pgxpool.Pool) *RejectionTrackerRepo {
	return &RejectionTrackerRepo{pool: pool}
}

// RecordRejection is an upsert: the first rejection inserts a row with
// count 1, every subsequent rejection increments it in place.
func (r *RejectionTrackerRepo) RecordRejection(ctx context.Context, projectID uuid.UUID, prNumber int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pr_rejection_counts (project_id, pr_number, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (project_id, pr_number) DO UPDATE SET count = pr_rejection_counts.count + 1
		RETURNING count`,
		projectID, prNumber,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.DomainWrap(apperrors.KindInternal, err, "recording pr rejection")
	}
	return count, nil
}
