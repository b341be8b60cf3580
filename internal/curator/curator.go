// Package curator implements the Moment Curator: four detectors that
// observe the same domain events driving the reputation policies and
// synthesize ViralMoment records. Curator side effects never affect ELO;
// they only create moments, and failures here must never roll back a
// policy's ELO side effects (enforced by the event dispatcher,
// internal/ingest).
package curator

import (
	"context"
	"crypto/sha256"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/clock"
	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
	"github.com/agentforge/reputation-engine/internal/logging"
	"github.com/agentforge/reputation-engine/internal/ports"
)

// Thresholds is the Moment Curator's tunable configuration.
type Thresholds struct {
	MinShameScore      int
	MinDramaScore      int
	MinEloDifferential int // upset detection, default 200
	MinBattleRacers    int // default 2
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinShameScore:      10,
		MinDramaScore:      10,
		MinEloDifferential: 200,
		MinBattleRacers:    2,
	}
}

// Curator is the Moment Curator (C8).
type Curator struct {
	Moments    ports.ViralMomentRepository
	Agents     ports.AgentRepository
	Forge      ports.ForgeClient
	Clock      clock.Clock
	Thresholds Thresholds
}

func New(moments ports.ViralMomentRepository, agents ports.AgentRepository, forge ports.ForgeClient, c clock.Clock, thresholds Thresholds) *Curator {
	return &Curator{Moments: moments, Agents: agents, Forge: forge, Clock: c, Thresholds: thresholds}
}

// deterministicUUID derives a stable UUID from a dedup key using the first
// 16 bytes of its SHA-256 hash, so the same revert or live-battle event
// always resolves to the same reference ID instead of a fresh random UUID
// that would defeat the "already emitted" dedup check below.
func deterministicUUID(key string) uuid.UUID {
	sum := sha256.Sum256([]byte(key))
	var id uuid.UUID
	copy(id[:], sum[:16])
	return id
}

// tierBonus mirrors the reference implementation's scoring tables: Gold
// agents contribute more shame/upset weight than Silver; Bronze contributes
// none.
func tierBonus(t domain.Tier, gold, silver int) int {
	switch t {
	case domain.TierGold:
		return gold
	case domain.TierSilver:
		return silver
	default:
		return 0
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// emit performs the existence-check-then-create dedup dance: check first
// (fast path), then tolerate an insert-time AlreadyExists conflict as
// "already emitted" rather than an error.
func (c *Curator) emit(ctx context.Context, m *domain.NewViralMoment) (*domain.ViralMoment, error) {
	exists, err := c.Moments.ExistsForReference(ctx, m.ReferenceType, m.ReferenceID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "checking moment existence")
	}
	if exists {
		return nil, nil
	}

	created, err := c.Moments.Create(ctx, m)
	if err != nil {
		if apperrors.IsAlreadyExists(err) {
			return nil, nil
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating viral moment")
	}
	logging.MomentEmitted(created.Kind, created.ReferenceType, created.ReferenceID, created.Score)
	return created, nil
}
