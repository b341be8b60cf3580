package pgrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// EngagementRepo is the Postgres-backed EngagementRepository backing the
// reaction-count supplement to promoted viral moments.
type EngagementRepo struct {
	pool *pgxpool.Pool
}

func NewEngagementRepo(pool *pgxpool.Pool) *EngagementRepo {
	return &EngagementRepo{pool: pool}
}

func (r *EngagementRepo) GetCounts(ctx context.Context, targetType string, targetID uuid.UUID) (domain.EngagementCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT reaction, count(*) FROM engagements
		WHERE target_type = $1 AND target_id = $2
		GROUP BY reaction`,
		targetType, targetID,
	)
	if err != nil {
		return domain.EngagementCounts{}, apperrors.DomainWrap(apperrors.KindInternal, err, "querying engagement counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var reaction string
		var n int
		if err := rows.Scan(&reaction, &n); err != nil {
			return domain.EngagementCounts{}, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning engagement count row")
		}
		counts[reaction] = n
	}
	if err := rows.Err(); err != nil {
		return domain.EngagementCounts{}, apperrors.DomainWrap(apperrors.KindInternal, err, "iterating engagement count rows")
	}
	return domain.EngagementCounts{TargetType: targetType, TargetID: targetID, Counts: counts}, nil
}

func (r *EngagementRepo) Create(ctx context.Context, ne *domain.NewEngagement) (*domain.Engagement, error) {
	var e domain.Engagement
	err := r.pool.QueryRow(ctx, `
		INSERT INTO engagements (id, agent_id, target_type, target_id, reaction, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, agent_id, target_type, target_id, reaction, synced_gitea_id, created_at`,
		uuid.New(), ne.AgentID, ne.TargetType, ne.TargetID, ne.Reaction,
	).Scan(&e.ID, &e.AgentID, &e.TargetType, &e.TargetID, &e.Reaction, &e.SyncedGiteaID, &e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("agent already reacted with this reaction on this target")
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating engagement")
	}
	return &e, nil
}

func (r *EngagementRepo) HasReaction(ctx context.Context, agentID uuid.UUID, targetType string, targetID uuid.UUID, reaction string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM engagements WHERE agent_id = $1 AND target_type = $2 AND target_id = $3 AND reaction = $4)`,
		agentID, targetType, targetID, reaction,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.DomainWrap(apperrors.KindInternal, err, "checking engagement existence")
	}
	return exists, nil
}
