// Package ports defines the storage and forge-client abstractions the core
// depends on. These are the system's only abstraction seam (SPEC_FULL.md §9
// "Dynamic dispatch over ports"): production code binds them to Postgres
// (internal/pgrepo) and a go-github-based Gitea client (internal/forge);
// tests bind them to internal/memstore's in-memory doubles.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
)

// AgentRepository persists Agent entities.
type AgentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error)
	FindByName(ctx context.Context, name string) (*domain.Agent, error)
	FindByForgeLogin(ctx context.Context, login string) (*domain.Agent, error)
	Create(ctx context.Context, a *domain.NewAgent) (*domain.Agent, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
	// UpdateElo persists the new ELO for id. Implementations MUST serialize
	// concurrent calls for the same id (row lock or single-writer queue) per
	// SPEC_FULL.md §5.
	UpdateElo(ctx context.Context, id uuid.UUID, elo int) error
	FindTopByElo(ctx context.Context, limit int64) ([]domain.Agent, error)
}

// ProjectRepository persists Project and ProjectMember entities.
type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	FindByForgeRepo(ctx context.Context, owner, repo string) (*domain.Project, error)
	Create(ctx context.Context, p *domain.NewProject) (*domain.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ProjectStatus) error
	AdjustTicketCount(ctx context.Context, id uuid.UUID, delta int) error
	GetMembers(ctx context.Context, id uuid.UUID) ([]domain.ProjectMember, error)
	AddMember(ctx context.Context, projectID, agentID uuid.UUID, role domain.MemberRole) (*domain.ProjectMember, error)
	IsMember(ctx context.Context, projectID, agentID uuid.UUID) (bool, error)
}

// TicketRepository persists Ticket entities (supplemented module).
type TicketRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	FindOpenByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Ticket, error)
	FindByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.Ticket, error)
	Create(ctx context.Context, t *domain.NewTicket) (*domain.Ticket, error)
	Assign(ctx context.Context, id, agentID uuid.UUID) error
	Unassign(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TicketStatus) error
	Close(ctx context.Context, id uuid.UUID) error
	CountOpenByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// ContributionRepository persists CodeContribution entities (C3 Contribution
// Ledger).
type ContributionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CodeContribution, error)
	FindByCommitSHA(ctx context.Context, sha string) (*domain.CodeContribution, error)
	FindByPR(ctx context.Context, projectID uuid.UUID, prNumber int64) (*domain.CodeContribution, error)
	FindByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.CodeContribution, error)
	// FindEligibleForLongevityBonus returns healthy, unpaid contributions
	// merged at or before threshold.
	FindEligibleForLongevityBonus(ctx context.Context, threshold time.Time) ([]domain.CodeContribution, error)
	Create(ctx context.Context, c *domain.NewCodeContribution) (*domain.CodeContribution, error)
	// UpdateStatus is atomic and sets the appropriate reverted/replaced
	// timestamp alongside the status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContributionStatus, at time.Time) error
	MarkLongevityBonusPaid(ctx context.Context, id uuid.UUID) error
	IncrementBugCount(ctx context.Context, id uuid.UUID) error
	IncrementDependentPRs(ctx context.Context, id uuid.UUID) error
}

// ReviewRepository persists AgentReview entities (C4 Review Ledger).
type ReviewRepository interface {
	FindByPR(ctx context.Context, projectID uuid.UUID, prNumber int64) ([]domain.AgentReview, error)
	FindByReviewer(ctx context.Context, agentID uuid.UUID) ([]domain.AgentReview, error)
	// CountByReviewerSince counts reviews created at or after since, for
	// rate-limit enforcement (SPEC_FULL.md §4.5).
	CountByReviewerSince(ctx context.Context, agentID uuid.UUID, since time.Time) (int64, error)
	ExistsForPRAndReviewer(ctx context.Context, projectID uuid.UUID, prNumber int64, reviewerID uuid.UUID) (bool, error)
	// Create fails with errors.AlreadyExists if the (project, pr, reviewer)
	// uniqueness invariant would be violated.
	Create(ctx context.Context, r *domain.NewAgentReview) (*domain.AgentReview, error)
}

// RejectionTracker counts repeat PR rejections for the same (project, pr)
// pair (supplemented module: see SPEC_FULL.md "Rejection-count tracking").
type RejectionTracker interface {
	// RecordRejection records one rejection occurrence and returns the
	// total count of rejections recorded so far for this PR (including this
	// one).
	RecordRejection(ctx context.Context, projectID uuid.UUID, prNumber int64) (int64, error)
}

// EloEventRepository persists the immutable EloEvent audit trail.
type EloEventRepository interface {
	FindByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int64) ([]domain.EloEvent, error)
	FindByReference(ctx context.Context, referenceID uuid.UUID) ([]domain.EloEvent, error)
	Create(ctx context.Context, e *domain.NewEloEvent) (*domain.EloEvent, error)
	SumDeltaByAgent(ctx context.Context, agentID uuid.UUID) (int64, error)
}

// EngagementRepository persists reaction Engagement entities (supplemented
// module: see SPEC_FULL.md "Engagement (reaction) counts").
type EngagementRepository interface {
	GetCounts(ctx context.Context, targetType string, targetID uuid.UUID) (domain.EngagementCounts, error)
	Create(ctx context.Context, e *domain.NewEngagement) (*domain.Engagement, error)
	HasReaction(ctx context.Context, agentID uuid.UUID, targetType string, targetID uuid.UUID, reaction string) (bool, error)
}

// ViralMomentRepository persists ViralMoment entities (C8 Moment Curator).
type ViralMomentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ViralMoment, error)
	FindByType(ctx context.Context, kind domain.MomentType, limit, offset int64) ([]domain.ViralMoment, error)
	FindTop(ctx context.Context, limit int64) ([]domain.ViralMoment, error)
	// ExistsForReference is the fast-path existence check detectors use
	// before attempting an insert (SPEC_FULL.md §5).
	ExistsForReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (bool, error)
	// Create must fail with errors.AlreadyExists on a (reference_type,
	// reference_id) conflict so detectors can treat it as "already emitted".
	Create(ctx context.Context, m *domain.NewViralMoment) (*domain.ViralMoment, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score int) error
	SetPromoted(ctx context.Context, id uuid.UUID, promoted bool) error
	SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error
}
