package pgrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	bolt "go.etcd.io/bbolt"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

var momentDedupBucket = []byte("moment_dedup")

// ViralMomentRepo is the Postgres-backed ViralMomentRepository (C8 Moment
// Curator), fronted by an embedded bbolt bucket caching "already emitted"
// (reference_type, reference_id) lookups, grounded on the teacher's
// internal/mcp.IdentityResolver cache-then-fallback pattern. cacheDB may be
// nil, in which case every lookup falls through to Postgres.
type ViralMomentRepo struct {
	pool    *pgxpool.Pool
	cacheDB *bolt.DB
}

// NewViralMomentRepo constructs a repo backed by pool, optionally fronted
// by cacheDB for the dedup fast path. Pass a nil cacheDB to run without the
// cache.
func NewViralMomentRepo(pool *pgxpool.Pool, cacheDB *bolt.DB) *ViralMomentRepo {
	return &ViralMomentRepo{pool: pool, cacheDB: cacheDB}
}

const viralMomentColumns = `id, kind, title, subtitle, score, involved_agents, reference_type, reference_id, snapshot, promoted, hidden, created_at`

func scanViralMoment(row pgx.Row) (*domain.ViralMoment, error) {
	var m domain.ViralMoment
	var snapshotRaw []byte
	if err := row.Scan(
		&m.ID, &m.Kind, &m.Title, &m.Subtitle, &m.Score, &m.InvolvedAgents,
		&m.ReferenceType, &m.ReferenceID, &snapshotRaw, &m.Promoted, &m.Hidden, &m.CreatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(snapshotRaw) > 0 {
		if err := json.Unmarshal(snapshotRaw, &m.Snapshot); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (r *ViralMomentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ViralMoment, error) {
	m, err := scanViralMoment(r.pool.QueryRow(ctx, `SELECT `+viralMomentColumns+` FROM viral_moments WHERE id = $1`, id))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying viral moment by id")
	}
	if m == nil {
		return nil, apperrors.NotFound("viral moment not found")
	}
	return m, nil
}

func (r *ViralMomentRepo) FindByType(ctx context.Context, kind domain.MomentType, limit, offset int64) ([]domain.ViralMoment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+viralMomentColumns+` FROM viral_moments
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		kind, limit, offset,
	)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying viral moments by type")
	}
	defer rows.Close()
	return collectViralMoments(rows)
}

func (r *ViralMomentRepo) FindTop(ctx context.Context, limit int64) ([]domain.ViralMoment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+viralMomentColumns+` FROM viral_moments ORDER BY score DESC LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying top viral moments")
	}
	defer rows.Close()
	return collectViralMoments(rows)
}

func collectViralMoments(rows pgx.Rows) ([]domain.ViralMoment, error) {
	var out []domain.ViralMoment
	for rows.Next() {
		m, err := scanViralMoment(rows)
		if err != nil {
			return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning viral moment row")
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ExistsForReference checks the bbolt cache before falling through to
// Postgres, and backfills the cache on a miss so the next detector run for
// the same reference skips the DB entirely.
func (r *ViralMomentRepo) ExistsForReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (bool, error) {
	key := dedupKey(referenceType, referenceID)

	if r.cacheDB != nil {
		if cached, ok := r.getCached(key); ok {
			return cached, nil
		}
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM viral_moments WHERE reference_type = $1 AND reference_id = $2)`, referenceType, referenceID).Scan(&exists)
	if err != nil {
		return false, apperrors.DomainWrap(apperrors.KindInternal, err, "checking viral moment existence")
	}

	if exists && r.cacheDB != nil {
		r.setCached(key)
	}
	return exists, nil
}

func (r *ViralMomentRepo) Create(ctx context.Context, nm *domain.NewViralMoment) (*domain.ViralMoment, error) {
	snapshotRaw, err := json.Marshal(nm.Snapshot)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "marshaling viral moment snapshot")
	}

	m, err := scanViralMoment(r.pool.QueryRow(ctx, `
		INSERT INTO viral_moments (id, kind, title, subtitle, score, involved_agents, reference_type, reference_id, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING `+viralMomentColumns,
		uuid.New(), nm.Kind, nm.Title, nm.Subtitle, nm.Score, nm.InvolvedAgents, nm.ReferenceType, nm.ReferenceID, snapshotRaw,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("viral moment already exists for this reference")
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating viral moment")
	}

	if r.cacheDB != nil {
		r.setCached(dedupKey(nm.ReferenceType, nm.ReferenceID))
	}
	return m, nil
}

func (r *ViralMomentRepo) UpdateScore(ctx context.Context, id uuid.UUID, score int) error {
	return r.exec1(ctx, `UPDATE viral_moments SET score = $2 WHERE id = $1`, id, score)
}

func (r *ViralMomentRepo) SetPromoted(ctx context.Context, id uuid.UUID, promoted bool) error {
	return r.exec1(ctx, `UPDATE viral_moments SET promoted = $2 WHERE id = $1`, id, promoted)
}

func (r *ViralMomentRepo) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	return r.exec1(ctx, `UPDATE viral_moments SET hidden = $2 WHERE id = $1`, id, hidden)
}

func (r *ViralMomentRepo) exec1(ctx context.Context, query string, id uuid.UUID, arg any) error {
	tag, err := r.pool.Exec(ctx, query, id, arg)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "updating viral moment")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("viral moment not found")
	}
	return nil
}

func dedupKey(referenceType string, referenceID uuid.UUID) string {
	return referenceType + ":" + referenceID.String()
}

func (r *ViralMomentRepo) getCached(key string) (exists bool, found bool) {
	_ = r.cacheDB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(momentDedupBucket)
		if bucket == nil {
			return nil
		}
		if bucket.Get([]byte(key)) != nil {
			exists, found = true, true
		}
		return nil
	})
	return exists, found
}

func (r *ViralMomentRepo) setCached(key string) {
	_ = r.cacheDB.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(momentDedupBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}
