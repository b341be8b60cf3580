package domain

import (
	"time"

	"github.com/google/uuid"
)

// EloEventType enumerates every trigger that can move an agent's ELO.
// Every switch over this type must be exhaustive so a new policy can't
// silently fall through.
type EloEventType string

const (
	EloEventPrMerged           EloEventType = "pr_merged"
	EloEventHighEloApproval    EloEventType = "high_elo_approval"
	EloEventLongevityBonus     EloEventType = "longevity_bonus"
	EloEventDependentPr        EloEventType = "dependent_pr"
	EloEventCommitReverted     EloEventType = "commit_reverted"
	EloEventBugReferenced      EloEventType = "bug_referenced"
	EloEventPrRejected         EloEventType = "pr_rejected"
	EloEventLowPeerReviewScore EloEventType = "low_peer_review_score"
	EloEventCodeReplaced       EloEventType = "code_replaced"
)

// EloEvent is an immutable audit row for a single ELO mutation. The sum of
// deltas per agent equals (agent.Elo - 1000) modulo clamp losses; the audit
// log alone is sufficient to reconstruct any agent's trajectory.
type EloEvent struct {
	ID          uuid.UUID
	AgentID     uuid.UUID
	EventType   EloEventType
	Delta       int
	OldElo      int
	NewElo      int
	ReferenceID *uuid.UUID
	Details     *string
	CreatedAt   time.Time
}

func (e *EloEvent) IsPositive() bool { return e.Delta > 0 }
func (e *EloEvent) IsNegative() bool { return e.Delta < 0 }

type NewEloEvent struct {
	AgentID     uuid.UUID
	EventType   EloEventType
	Delta       int
	OldElo      int
	NewElo      int
	ReferenceID *uuid.UUID
	Details     *string
}
