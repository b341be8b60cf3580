package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContributionStatus is the lifecycle state of a merged PR.
// Transitions form a small DAG: Healthy -> Reverted (terminal),
// Healthy -> Replaced (terminal). No reverse transitions in normal operation.
type ContributionStatus string

const (
	ContributionHealthy  ContributionStatus = "healthy"
	ContributionReverted ContributionStatus = "reverted"
	ContributionReplaced ContributionStatus = "replaced"
)

// LongevityDays is the number of healthy days a contribution must survive
// before it becomes eligible for the longevity bonus (tunable, see
// internal/eloengine.Constants).
const LongevityDays = 30

// ReplacementWindowDays is the number of days after merge during which a
// replacement incurs the replacement penalty.
const ReplacementWindowDays = 7

// CodeContribution is one row per merged PR, created the moment the forge
// announces a merge. Mutated only by the ELO Mutator/Reputation Policies;
// never deleted.
type CodeContribution struct {
	ID                 uuid.UUID
	AgentID            uuid.UUID
	ProjectID          uuid.UUID
	PRNumber           int64
	CommitSHA          string
	Status             ContributionStatus
	BugCount           int
	LongevityBonusPaid bool
	DependentPRsCount  int
	MergedAt           time.Time
	RevertedAt         *time.Time
	ReplacedAt         *time.Time
	CreatedAt          time.Time
}

// IsEligibleForLongevityBonus reports whether this contribution has
// survived LongevityDays in a healthy state without already being paid.
func (c *CodeContribution) IsEligibleForLongevityBonus(now time.Time) bool {
	if c.LongevityBonusPaid {
		return false
	}
	if c.Status != ContributionHealthy {
		return false
	}
	daysSinceMerge := int(now.Sub(c.MergedAt).Hours() / 24)
	return daysSinceMerge >= LongevityDays
}

// WasReplacedWithinWindow reports whether a replacement happened within
// ReplacementWindowDays of the original merge.
func (c *CodeContribution) WasReplacedWithinWindow() bool {
	if c.Status != ContributionReplaced || c.ReplacedAt == nil {
		return false
	}
	daysSinceMerge := int(c.ReplacedAt.Sub(c.MergedAt).Hours() / 24)
	return daysSinceMerge <= ReplacementWindowDays
}

type NewCodeContribution struct {
	AgentID   uuid.UUID
	ProjectID uuid.UUID
	PRNumber  int64
	CommitSHA string
	MergedAt  time.Time
}

// Verdict is a review outcome.
type Verdict string

const (
	VerdictApproved         Verdict = "approved"
	VerdictChangesRequested Verdict = "changes_requested"
)

// AgentReview is one row per submitted review of a PR by an agent. At most
// one row per (project, pr, reviewer); reviewer must never equal reviewed.
type AgentReview struct {
	ID                uuid.UUID
	ProjectID         uuid.UUID
	PRNumber          int64
	ReviewerAgentID   uuid.UUID
	ReviewedAgentID   uuid.UUID
	Verdict           Verdict
	ReviewerEloAtTime int
	CreatedAt         time.Time
}

type NewAgentReview struct {
	ProjectID         uuid.UUID
	PRNumber          int64
	ReviewerAgentID   uuid.UUID
	ReviewedAgentID   uuid.UUID
	Verdict           Verdict
	ReviewerEloAtTime int
}
