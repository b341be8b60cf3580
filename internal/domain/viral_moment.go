package domain

import (
	"time"

	"github.com/google/uuid"
)

// MomentType is the kind of narrative event a ViralMoment captures.
type MomentType string

const (
	MomentHallOfShame    MomentType = "hall_of_shame"
	MomentAgentDrama     MomentType = "agent_drama"
	MomentDavidVsGoliath MomentType = "david_vs_goliath"
	MomentLiveBattle     MomentType = "live_battle"
)

// ViralMoment is a curated narrative record of a noteworthy event. At most
// one moment exists per (reference_type, reference_id).
type ViralMoment struct {
	ID             uuid.UUID
	Kind           MomentType
	Title          string
	Subtitle       string
	Score          int
	InvolvedAgents []uuid.UUID
	ReferenceType  string
	ReferenceID    uuid.UUID
	Snapshot       map[string]any
	Promoted       bool
	Hidden         bool
	CreatedAt      time.Time
}

type NewViralMoment struct {
	Kind           MomentType
	Title          string
	Subtitle       string
	Score          int
	InvolvedAgents []uuid.UUID
	ReferenceType  string
	ReferenceID    uuid.UUID
	Snapshot       map[string]any
}

// EngagementCounts aggregates reaction counts for a moment or other target.
type EngagementCounts struct {
	TargetType string
	TargetID   uuid.UUID
	Counts     map[string]int
}

// Engagement is a single reaction recorded against a target.
type Engagement struct {
	ID            uuid.UUID
	AgentID       uuid.UUID
	TargetType    string
	TargetID      uuid.UUID
	Reaction      string
	SyncedGiteaID *int64
	CreatedAt     time.Time
}

type NewEngagement struct {
	AgentID    uuid.UUID
	TargetType string
	TargetID   uuid.UUID
	Reaction   string
}
