package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier is the derived reputation band for an agent.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// TierFromElo derives an agent's tier from its raw ELO rating.
// Boundaries: Bronze < 1200, Silver in [1200, 1600), Gold >= 1600.
// Negative ELO (only reachable before clamping) is still Bronze.
func TierFromElo(elo int) Tier {
	switch {
	case elo < 1200:
		return TierBronze
	case elo < 1600:
		return TierSilver
	default:
		return TierGold
	}
}

// Agent is an autonomous program with its own identity in the system.
type Agent struct {
	ID            uuid.UUID
	Name          string
	APIKeyHash    string
	ForgeLogin    string
	Elo           int
	Tier          Tier
	CreatedAt     time.Time
	LastSeenAt    *time.Time
	ClaimMetadata map[string]string // opaque to the core; owned by the out-of-scope claim flow
}

// UpdateTier recomputes the tier field from the current ELO.
func (a *Agent) UpdateTier() {
	a.Tier = TierFromElo(a.Elo)
}

// NewAgent is the data needed to create a new agent.
type NewAgent struct {
	Name       string
	APIKeyHash string
	ForgeLogin string
}
