package ingest

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/curator"
	"github.com/agentforge/reputation-engine/internal/domain"
	"github.com/agentforge/reputation-engine/internal/eloengine"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
	"github.com/agentforge/reputation-engine/internal/logging"
	"github.com/agentforge/reputation-engine/internal/parser"
	"github.com/agentforge/reputation-engine/internal/ports"
)

// Dispatcher is the Event Dispatcher (C9): it normalizes a raw webhook into
// a DomainEvent (C1) and fans it out to the Reputation Policies (C6) and
// the Moment Curator (C8) in that order, per SPEC_FULL.md §4.8. Each policy
// call is independent — a failure is logged and the dispatcher moves on to
// the next applicable policy for the same event. Curator failures never
// roll back a policy's ELO side effects; the contract is that ELO is the
// system of record and moments are a best-effort narrative overlay.
type Dispatcher struct {
	Normalizer    *Normalizer
	Policies      *eloengine.Policies
	Curator       *curator.Curator
	Agents        ports.AgentRepository
	Projects      ports.ProjectRepository
	Contributions ports.ContributionRepository
	Reviews       ports.ReviewRepository
	Rejections    ports.RejectionTracker
	Forge         ports.ForgeClient
}

func NewDispatcher(
	normalizer *Normalizer,
	policies *eloengine.Policies,
	mc *curator.Curator,
	agents ports.AgentRepository,
	projects ports.ProjectRepository,
	contributions ports.ContributionRepository,
	reviews ports.ReviewRepository,
	rejections ports.RejectionTracker,
	forge ports.ForgeClient,
) *Dispatcher {
	return &Dispatcher{
		Normalizer:    normalizer,
		Policies:      policies,
		Curator:       mc,
		Agents:        agents,
		Projects:      projects,
		Contributions: contributions,
		Reviews:       reviews,
		Rejections:    rejections,
		Forge:         forge,
	}
}

// Dispatch runs one incoming webhook through Normalize -> {Policies,
// Curator}. A non-nil error here means C1 failed: either the payload was
// malformed (a Validation error, answered with a 4xx at the HTTP boundary)
// or an agent/project lookup failed (an Internal error, answered with a
// 5xx); every other failure along the way is logged and swallowed so the
// handler still answers 2xx, per SPEC_FULL.md §4.8 step 4.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload []byte) error {
	event, err := d.Normalizer.Normalize(ctx, eventType, payload)
	if err != nil {
		return err
	}
	logging.WebhookDispatched(event.Kind, event.Kind == domain.EventIgnored)
	if event.Kind == domain.EventIgnored {
		return nil
	}

	switch event.Kind {
	case domain.EventCommitsPushed:
		d.handlePush(ctx, event)
	case domain.EventPrMerged:
		d.handlePrMerged(ctx, event)
	case domain.EventPrClosed:
		d.handlePrClosed(ctx, event)
	case domain.EventPrOpened:
		d.handlePrOpened(ctx, event)
	case domain.EventReviewSubmitted:
		d.handleReview(ctx, event)
	case domain.EventIssueOpened:
		d.handleIssue(ctx, event)
	default:
		logging.Warn("dispatcher received an unhandled event kind", "kind", event.Kind)
	}
	return nil
}

// --- push: revert detection -------------------------------------------

func (d *Dispatcher) handlePush(ctx context.Context, event *domain.DomainEvent) {
	for _, c := range event.Commits {
		revertedSHA, ok := parser.ParseRevert(c.Message)
		if !ok {
			continue
		}

		change, err := d.Policies.OnCommitReverted(ctx, revertedSHA, c.SHA)
		if err != nil {
			logging.Error("on_commit_reverted policy failed", "reverted_sha", revertedSHA, "reverting_sha", c.SHA, "error", err)
			continue
		}
		if change == nil {
			// No healthy contribution matched this SHA (already reverted,
			// never merged, or unknown) — nothing further to do.
			continue
		}

		contribution, err := d.Contributions.FindByCommitSHA(ctx, revertedSHA)
		if err != nil || contribution == nil {
			continue
		}
		agent, err := d.Agents.FindByID(ctx, contribution.AgentID)
		if err != nil || agent == nil {
			continue
		}
		if _, err := d.Curator.CheckHallOfShameRevert(ctx, *agent, revertedSHA, c.Message); err != nil {
			logging.Warn("hall of shame revert detector failed, continuing", "error", err)
		}
	}
}

// --- pull_request: merged / closed / opened ----------------------------

func (d *Dispatcher) handlePrMerged(ctx context.Context, event *domain.DomainEvent) {
	if event.AuthorAgentID == nil || event.ProjectID == nil {
		return
	}
	agentID, projectID := *event.AuthorAgentID, *event.ProjectID

	if _, err := d.Policies.OnPrMerged(ctx, agentID, projectID, event.PRNumber, event.HeadSHA); err != nil {
		logging.Error("on_pr_merged policy failed", "agent_id", agentID, "pr_number", event.PRNumber, "error", err)
	}

	d.detectUpset(ctx, event, projectID)
	d.detectLiveBattle(ctx, event, projectID)
}

func (d *Dispatcher) handlePrClosed(ctx context.Context, event *domain.DomainEvent) {
	if event.AuthorAgentID == nil {
		return
	}
	agentID := *event.AuthorAgentID

	if _, err := d.Policies.OnPrRejected(ctx, agentID, event.PRNumber); err != nil {
		logging.Error("on_pr_rejected policy failed", "agent_id", agentID, "pr_number", event.PRNumber, "error", err)
	}

	if event.ProjectID == nil || d.Rejections == nil {
		return
	}
	projectID := *event.ProjectID

	project, err := d.Projects.FindByID(ctx, projectID)
	if err != nil || project == nil {
		return
	}
	rejectionCount, err := d.Rejections.RecordRejection(ctx, projectID, event.PRNumber)
	if err != nil {
		logging.Warn("rejection tracker failed, continuing", "error", err)
		return
	}
	agent, err := d.Agents.FindByID(ctx, agentID)
	if err != nil || agent == nil {
		return
	}
	if _, err := d.Curator.CheckHallOfShameRejection(ctx, *agent, project.Name, event.PRNumber, rejectionCount); err != nil {
		logging.Warn("hall of shame rejection detector failed, continuing", "error", err)
	}
}

func (d *Dispatcher) handlePrOpened(ctx context.Context, event *domain.DomainEvent) {
	if event.ProjectID == nil {
		return
	}
	d.detectLiveBattle(ctx, event, *event.ProjectID)
}

// --- pull_request_review: peer review + drama --------------------------

func (d *Dispatcher) handleReview(ctx context.Context, event *domain.DomainEvent) {
	if event.ReviewerAgentID == nil || event.ReviewedAgentID == nil || event.ProjectID == nil {
		return
	}
	projectID := *event.ProjectID

	reviewer, err := d.Agents.FindByID(ctx, *event.ReviewerAgentID)
	if err != nil || reviewer == nil {
		return
	}

	_, _, err = d.Policies.OnPeerReview(ctx, projectID, event.PRNumber, *event.ReviewerAgentID, *event.ReviewedAgentID, reviewer.Elo, event.ReviewVerdict)
	if err != nil {
		if apperrors.IsValidation(err) {
			logging.Info("peer review rejected by policy", "reason", err)
		} else {
			logging.Error("on_peer_review policy failed", "error", err)
		}
		return
	}

	d.detectDrama(ctx, projectID, event.PRNumber)
}

func (d *Dispatcher) detectDrama(ctx context.Context, projectID uuid.UUID, prNumber int64) {
	reviews, err := d.Reviews.FindByPR(ctx, projectID, prNumber)
	if err != nil || len(reviews) == 0 {
		return
	}
	project, err := d.Projects.FindByID(ctx, projectID)
	if err != nil || project == nil {
		return
	}

	dramaReviews := make([]curator.DramaReview, 0, len(reviews))
	for _, r := range reviews {
		agent, err := d.Agents.FindByID(ctx, r.ReviewerAgentID)
		if err != nil || agent == nil {
			continue
		}
		dramaReviews = append(dramaReviews, curator.DramaReview{
			ReviewerAgentID: agent.ID,
			ReviewerElo:     agent.Elo,
			ReviewerTier:    agent.Tier,
			Verdict:         r.Verdict,
		})
	}

	if _, err := d.Curator.CheckDrama(ctx, project.Name, prNumber, dramaReviews); err != nil {
		logging.Warn("drama detector failed, continuing", "error", err)
	}
}

// --- issues: bug reference -----------------------------------------------

func (d *Dispatcher) handleIssue(ctx context.Context, event *domain.DomainEvent) {
	if event.ProjectID == nil || !parser.IsLikelyBugReport(event.IssueTitle) {
		return
	}
	projectID := *event.ProjectID

	for _, prNumber := range parser.ParsePRReferences(event.IssueBody) {
		if _, err := d.Policies.OnBugReferenced(ctx, projectID, prNumber, event.IssueURL); err != nil {
			logging.Error("on_bug_referenced policy failed", "pr_number", prNumber, "error", err)
		}
	}
}

// --- upset and live-battle detection, shared by merged/opened PRs -------

// competingIssueRef extracts the issue number a PR's title or head-branch
// name references, trying the title first.
func competingIssueRef(title, headRef string) (int64, bool) {
	if ref, ok := parser.ExtractIssueReference(title); ok {
		return ref, true
	}
	return parser.ExtractIssueReference(headRef)
}

func (d *Dispatcher) detectUpset(ctx context.Context, event *domain.DomainEvent, projectID uuid.UUID) {
	if d.Forge == nil || event.AuthorAgentID == nil {
		return
	}
	project, err := d.Projects.FindByID(ctx, projectID)
	if err != nil || project == nil {
		return
	}
	issueRef, ok := competingIssueRef(event.PRTitle, event.PRHeadRef)
	if !ok {
		return
	}

	closedPRs, err := d.Forge.ListPullRequests(ctx, project.ForgeOwner, project.ForgeRepo, "closed")
	if err != nil {
		if fe, ok := err.(*ports.ForgeError); !ok || !fe.IsSoft() {
			logging.Warn("forge list pull requests failed during upset detection", "error", err)
		}
		return
	}

	winnerAgent, err := d.Agents.FindByID(ctx, *event.AuthorAgentID)
	if err != nil || winnerAgent == nil {
		return
	}

	var losers []curator.Loser
	for _, pr := range closedPRs {
		if pr.Merged || pr.UserLogin == event.AuthorLogin {
			continue
		}
		ref, ok := competingIssueRef(pr.Title, pr.HeadRef)
		if !ok || ref != issueRef {
			continue
		}
		loserAgent, err := d.Agents.FindByForgeLogin(ctx, pr.UserLogin)
		if err != nil || loserAgent == nil {
			continue
		}
		losers = append(losers, curator.Loser{AgentID: loserAgent.ID, Elo: loserAgent.Elo, Tier: loserAgent.Tier})
	}
	if len(losers) == 0 {
		return
	}

	issueID := project.Name + "#" + strconv.FormatInt(issueRef, 10)
	if _, err := d.Curator.CheckUpset(ctx, winnerAgent.ID, winnerAgent.Elo, losers, issueID, ""); err != nil {
		logging.Warn("upset detector failed, continuing", "error", err)
	}
}

func (d *Dispatcher) detectLiveBattle(ctx context.Context, event *domain.DomainEvent, projectID uuid.UUID) {
	if d.Forge == nil {
		return
	}
	project, err := d.Projects.FindByID(ctx, projectID)
	if err != nil || project == nil {
		return
	}
	issueRef, ok := competingIssueRef(event.PRTitle, event.PRHeadRef)
	if !ok {
		return
	}

	openPRs, err := d.Forge.ListPullRequests(ctx, project.ForgeOwner, project.ForgeRepo, "open")
	if err != nil {
		if fe, ok := err.(*ports.ForgeError); !ok || !fe.IsSoft() {
			logging.Warn("forge list pull requests failed during live-battle detection", "error", err)
		}
		return
	}

	var racers []curator.Racer
	for _, pr := range openPRs {
		ref, ok := competingIssueRef(pr.Title, pr.HeadRef)
		if !ok || ref != issueRef {
			continue
		}
		agent, err := d.Agents.FindByForgeLogin(ctx, pr.UserLogin)
		if err != nil || agent == nil {
			continue
		}
		racers = append(racers, curator.Racer{AgentID: agent.ID, Elo: agent.Elo, Tier: agent.Tier})
	}
	if len(racers) < d.Curator.Thresholds.MinBattleRacers {
		return
	}

	issueID := project.Name + "#" + strconv.FormatInt(issueRef, 10)
	if _, err := d.Curator.CheckLiveBattle(ctx, project.Name, issueID, racers); err != nil {
		logging.Warn("live battle detector failed, continuing", "error", err)
	}
}
