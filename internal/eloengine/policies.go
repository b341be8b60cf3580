package eloengine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/clock"
	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
	"github.com/agentforge/reputation-engine/internal/ports"
)

// Policies is the closed table of (trigger -> delta) rules with their
// preconditions (C6 Reputation Policies). On* methods are the only path
// through which reputation mutates; they all funnel through Mutator.Apply.
type Policies struct {
	Mutator       *Mutator
	Contributions ports.ContributionRepository
	Reviews       ports.ReviewRepository
	Clock         clock.Clock
	Constants     Constants
}

func NewPolicies(mutator *Mutator, contributions ports.ContributionRepository, reviews ports.ReviewRepository, c clock.Clock, constants Constants) *Policies {
	return &Policies{Mutator: mutator, Contributions: contributions, Reviews: reviews, Clock: c, Constants: constants}
}

func detailPtr(s string) *string { return &s }
func refPtr(id uuid.UUID) *uuid.UUID { return &id }

// OnPrMerged creates a CodeContribution and awards +PrMerged to the author.
func (p *Policies) OnPrMerged(ctx context.Context, agentID, projectID uuid.UUID, prNumber int64, commitSHA string) (*EloChange, error) {
	contribution, err := p.Contributions.Create(ctx, &domain.NewCodeContribution{
		AgentID:   agentID,
		ProjectID: projectID,
		PRNumber:  prNumber,
		CommitSHA: commitSHA,
		MergedAt:  p.Clock.Now(),
	})
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating code contribution on merge")
	}

	return p.Mutator.Apply(ctx, agentID, p.Constants.PrMerged, domain.EloEventPrMerged, refPtr(contribution.ID), detailPtr(fmt.Sprintf("PR #%d merged", prNumber)))
}

// OnPeerReview enforces the peer-review preconditions (no self-review, rate
// limit, no duplicate review) and then inserts the review. If it is an
// approval from a reviewer whose ELO snapshot is at or above
// HighEloThreshold, the reviewed agent is awarded +HighEloApproval.
func (p *Policies) OnPeerReview(ctx context.Context, projectID uuid.UUID, prNumber int64, reviewerID, reviewedID uuid.UUID, reviewerElo int, verdict domain.Verdict) (*domain.AgentReview, *EloChange, error) {
	if reviewerID == reviewedID {
		return nil, nil, apperrors.Validation("a reviewer may not review their own contribution")
	}

	since := p.Clock.Now().Add(-1 * time.Hour)
	recent, err := p.Reviews.CountByReviewerSince(ctx, reviewerID, since)
	if err != nil {
		return nil, nil, apperrors.DomainWrap(apperrors.KindInternal, err, "counting recent reviews")
	}
	if recent >= int64(p.Constants.MaxReviewsPerHour) {
		return nil, nil, apperrors.Validation("reviewer has exceeded the maximum reviews per hour")
	}

	exists, err := p.Reviews.ExistsForPRAndReviewer(ctx, projectID, prNumber, reviewerID)
	if err != nil {
		return nil, nil, apperrors.DomainWrap(apperrors.KindInternal, err, "checking existing review")
	}
	if exists {
		return nil, nil, apperrors.Validation("reviewer has already reviewed this pull request")
	}

	review, err := p.Reviews.Create(ctx, &domain.NewAgentReview{
		ProjectID:         projectID,
		PRNumber:          prNumber,
		ReviewerAgentID:   reviewerID,
		ReviewedAgentID:   reviewedID,
		Verdict:           verdict,
		ReviewerEloAtTime: reviewerElo,
	})
	if err != nil {
		return nil, nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating agent review")
	}

	if verdict != domain.VerdictApproved || reviewerElo < p.Constants.HighEloThreshold {
		return review, nil, nil
	}

	change, err := p.Mutator.Apply(ctx, reviewedID, p.Constants.HighEloApproval, domain.EloEventHighEloApproval, refPtr(review.ID), detailPtr(fmt.Sprintf("high-ELO approval from reviewer at %d", reviewerElo)))
	if err != nil {
		return review, nil, err
	}
	return review, change, nil
}

// OnCommitReverted applies the revert penalty once per healthy contribution
// matching revertedSHA. Idempotent: calling this twice for the same SHA
// produces exactly one status transition and one EloEvent, because the
// second call finds the contribution already in the `reverted` state and
// is a no-op.
func (p *Policies) OnCommitReverted(ctx context.Context, revertedSHA, revertingSHA string) (*EloChange, error) {
	contribution, err := p.Contributions.FindByCommitSHA(ctx, revertedSHA)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "looking up reverted contribution")
	}
	if contribution == nil || contribution.Status != domain.ContributionHealthy {
		return nil, nil
	}

	now := p.Clock.Now()
	if err := p.Contributions.UpdateStatus(ctx, contribution.ID, domain.ContributionReverted, now); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "marking contribution reverted")
	}

	return p.Mutator.Apply(ctx, contribution.AgentID, p.Constants.CommitReverted, domain.EloEventCommitReverted, refPtr(contribution.ID), detailPtr(fmt.Sprintf("reverted by %s", revertingSHA)))
}

// OnBugReferenced applies the bug-reference penalty. Not idempotent: each
// reference is counted, per SPEC_FULL.md §9 (issue-opened is the sole
// trigger; an edit does not re-fire).
func (p *Policies) OnBugReferenced(ctx context.Context, projectID uuid.UUID, prNumber int64, issueURL string) (*EloChange, error) {
	contribution, err := p.Contributions.FindByPR(ctx, projectID, prNumber)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "looking up contribution for bug reference")
	}
	if contribution == nil {
		return nil, nil
	}

	if err := p.Contributions.IncrementBugCount(ctx, contribution.ID); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "incrementing bug count")
	}

	return p.Mutator.Apply(ctx, contribution.AgentID, p.Constants.BugReferenced, domain.EloEventBugReferenced, refPtr(contribution.ID), detailPtr("bug issue references this PR: "+issueURL))
}

// OnPrRejected applies the rejection penalty. No contribution interaction.
func (p *Policies) OnPrRejected(ctx context.Context, agentID uuid.UUID, prNumber int64) (*EloChange, error) {
	return p.Mutator.Apply(ctx, agentID, p.Constants.PrRejected, domain.EloEventPrRejected, nil, detailPtr(fmt.Sprintf("PR #%d rejected", prNumber)))
}

// OnCodeReplaced applies the replacement penalty, only if the contribution
// was replaced within the configured replacement window.
func (p *Policies) OnCodeReplaced(ctx context.Context, contributionID uuid.UUID) (*EloChange, error) {
	contribution, err := p.Contributions.FindByID(ctx, contributionID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "looking up contribution for replacement")
	}
	if contribution == nil {
		return nil, apperrors.NotFound("contribution not found")
	}

	now := p.Clock.Now()
	daysSinceMerge := int(now.Sub(contribution.MergedAt).Hours() / 24)
	if daysSinceMerge > p.Constants.ReplacementWindowDays {
		return nil, nil
	}

	if err := p.Contributions.UpdateStatus(ctx, contribution.ID, domain.ContributionReplaced, now); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "marking contribution replaced")
	}

	return p.Mutator.Apply(ctx, contribution.AgentID, p.Constants.CodeReplaced, domain.EloEventCodeReplaced, refPtr(contribution.ID), nil)
}

// OnLowPeerReviewScore applies the low-peer-review-score penalty. No
// side effect beyond the audit trail.
func (p *Policies) OnLowPeerReviewScore(ctx context.Context, agentID uuid.UUID, prNumber int64, detail string) (*EloChange, error) {
	return p.Mutator.Apply(ctx, agentID, p.Constants.LowPeerReview, domain.EloEventLowPeerReviewScore, nil, detailPtr(detail))
}

// OnDependentPr increments the contribution's dependent-PR counter and
// awards +DependentPr. Callable repeatedly (once per dependent PR).
func (p *Policies) OnDependentPr(ctx context.Context, contributionID uuid.UUID) (*EloChange, error) {
	contribution, err := p.Contributions.FindByID(ctx, contributionID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "looking up contribution for dependent pr")
	}
	if contribution == nil {
		return nil, apperrors.NotFound("contribution not found")
	}

	if err := p.Contributions.IncrementDependentPRs(ctx, contribution.ID); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "incrementing dependent prs")
	}

	return p.Mutator.Apply(ctx, contribution.AgentID, p.Constants.DependentPr, domain.EloEventDependentPr, refPtr(contribution.ID), nil)
}
