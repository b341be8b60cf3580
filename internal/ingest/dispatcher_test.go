package ingest_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/reputation-engine/internal/clock"
	"github.com/agentforge/reputation-engine/internal/curator"
	"github.com/agentforge/reputation-engine/internal/domain"
	"github.com/agentforge/reputation-engine/internal/eloengine"
	"github.com/agentforge/reputation-engine/internal/ingest"
	"github.com/agentforge/reputation-engine/internal/memstore"
	"github.com/agentforge/reputation-engine/internal/ports"
)

type dispatcherHarness struct {
	agents        *memstore.AgentStore
	projects      *memstore.ProjectStore
	contributions *memstore.ContributionStore
	reviews       *memstore.ReviewStore
	moments       *memstore.ViralMomentStore
	forge         *memstore.ForgeDouble
	dispatcher    *ingest.Dispatcher
}

func newDispatcherHarness(now time.Time) *dispatcherHarness {
	agents := memstore.NewAgentStore()
	projects := memstore.NewProjectStore()
	contributions := memstore.NewContributionStore()
	reviews := memstore.NewReviewStore()
	events := memstore.NewEloEventStore()
	moments := memstore.NewViralMomentStore()
	rejections := memstore.NewRejectionTrackerStore()
	forge := memstore.NewForgeDouble()

	c := clock.NewFrozen(now)
	mutator := eloengine.NewMutator(agents, events, c)
	policies := eloengine.NewPolicies(mutator, contributions, reviews, c, eloengine.DefaultConstants())
	mc := curator.New(moments, agents, forge, c, curator.DefaultThresholds())
	normalizer := ingest.NewNormalizer(agents, projects)
	dispatcher := ingest.NewDispatcher(normalizer, policies, mc, agents, projects, contributions, reviews, rejections, forge)

	return &dispatcherHarness{
		agents: agents, projects: projects, contributions: contributions,
		reviews: reviews, moments: moments, forge: forge, dispatcher: dispatcher,
	}
}

func (h *dispatcherHarness) newAgent(t *testing.T, name string, elo int) *domain.Agent {
	t.Helper()
	a, err := h.agents.Create(context.Background(), &domain.NewAgent{Name: name, ForgeLogin: name, APIKeyHash: "x"})
	require.NoError(t, err)
	require.NoError(t, h.agents.UpdateElo(context.Background(), a.ID, elo))
	got, err := h.agents.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	return got
}

func (h *dispatcherHarness) newProject(t *testing.T, name, owner, repo string) *domain.Project {
	t.Helper()
	p, err := h.projects.Create(context.Background(), &domain.NewProject{Name: name, ForgeOwner: owner, ForgeRepo: repo})
	require.NoError(t, err)
	return p
}

// A PR-merged webhook for a known author in a known project awards the
// merge bonus via C6, end-to-end through the dispatcher.
func TestDispatch_PrMerged_AwardsBonus(t *testing.T) {
	h := newDispatcherHarness(time.Now())
	ctx := context.Background()
	author := h.newAgent(t, "author", 1000)
	h.newProject(t, "widgets", "acme", "widgets")

	payload, err := json.Marshal(ingest.PullRequestPayload{
		Action: "closed",
		Number: 42,
		PullRequest: ingest.PullRequestRef{
			Title:  "fix widget",
			Merged: true,
			Head:   ingest.HeadRef{Ref: "fix-widget", SHA: "sha42"},
			User:   ingest.UserRef{Login: "author"},
		},
		Repository: ingest.RepositoryRef{Owner: ingest.OwnerRef{Login: "acme"}, Name: "widgets"},
	})
	require.NoError(t, err)

	require.NoError(t, h.dispatcher.Dispatch(ctx, "pull_request", payload))

	got, err := h.agents.FindByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1015, got.Elo)

	contrib, err := h.contributions.FindByCommitSHA(ctx, "sha42")
	require.NoError(t, err)
	require.NotNil(t, contrib)
	assert.Equal(t, domain.ContributionHealthy, contrib.Status)
}

// A push webhook whose commit message reverts a known merged SHA applies
// the revert penalty and emits a hall-of-shame moment, via the dispatcher
// alone (no direct policy/curator calls).
func TestDispatch_Push_RevertTriggersPenaltyAndMoment(t *testing.T) {
	h := newDispatcherHarness(time.Now())
	ctx := context.Background()
	author := h.newAgent(t, "author", 1500) // Silver tier; text signals alone clear the shame threshold
	project := h.newProject(t, "widgets", "acme", "widgets")

	_, err := h.contributions.Create(ctx, &domain.NewCodeContribution{
		AgentID: author.ID, ProjectID: project.ID, PRNumber: 1, CommitSHA: "abc1234def", MergedAt: time.Now(),
	})
	require.NoError(t, err)

	payload, err := json.Marshal(ingest.PushPayload{
		Ref:        "refs/heads/main",
		Repository: ingest.RepositoryRef{Owner: ingest.OwnerRef{Login: "acme"}, Name: "widgets"},
		Commits: []ingest.CommitEntry{
			{SHA: "sha99", Message: "Revert \"fix widget\"\n\nThis reverts commit abc1234def, it broke production and introduced a security hole."},
		},
	})
	require.NoError(t, err)

	require.NoError(t, h.dispatcher.Dispatch(ctx, "push", payload))

	got, err := h.agents.FindByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1470, got.Elo) // 1500 - 30

	contrib, err := h.contributions.FindByCommitSHA(ctx, "abc1234def")
	require.NoError(t, err)
	assert.Equal(t, domain.ContributionReverted, contrib.Status)

	moments, err := h.moments.FindByType(ctx, domain.MomentHallOfShame, 10, 0)
	require.NoError(t, err)
	require.Len(t, moments, 1)
	assert.Equal(t, "pr_revert", moments[0].ReferenceType)

	// Dispatching the very same push again must not double-penalize or
	// double-emit (idempotence property 3/7).
	require.NoError(t, h.dispatcher.Dispatch(ctx, "push", payload))

	got, err = h.agents.FindByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1470, got.Elo)

	moments, err = h.moments.FindByType(ctx, domain.MomentHallOfShame, 10, 0)
	require.NoError(t, err)
	assert.Len(t, moments, 1)
}

// An approved review from a high-ELO reviewer, submitted via webhook,
// awards the reviewed agent's bonus and — once the PR carries a mixed
// verdict split — emits exactly one drama moment.
func TestDispatch_Review_DramaAfterMixedVerdicts(t *testing.T) {
	h := newDispatcherHarness(time.Now())
	ctx := context.Background()
	reviewedAgent := h.newAgent(t, "reviewed", 1000)
	approver := h.newAgent(t, "approver", 1650)
	objector := h.newAgent(t, "objector", 1650)
	h.newProject(t, "widgets", "acme", "widgets")
	_ = reviewedAgent

	approve, err := json.Marshal(ingest.PullRequestReviewPayload{
		Action: "submitted",
		Review: ingest.ReviewRef{State: "approved", Reviewer: ingest.UserRef{Login: "approver"}},
		PullRequest: ingest.PullRequestRef{
			Title: "fix widget", User: ingest.UserRef{Login: "reviewed"},
		},
		Number:     7,
		Repository: ingest.RepositoryRef{Owner: ingest.OwnerRef{Login: "acme"}, Name: "widgets"},
	})
	require.NoError(t, err)
	require.NoError(t, h.dispatcher.Dispatch(ctx, "pull_request_review", approve))

	got, err := h.agents.FindByID(ctx, reviewedAgent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1005, got.Elo) // high-elo approval bonus

	changes, err := json.Marshal(ingest.PullRequestReviewPayload{
		Action: "submitted",
		Review: ingest.ReviewRef{State: "changes_requested", Reviewer: ingest.UserRef{Login: "objector"}},
		PullRequest: ingest.PullRequestRef{
			Title: "fix widget", User: ingest.UserRef{Login: "reviewed"},
		},
		Number:     7,
		Repository: ingest.RepositoryRef{Owner: ingest.OwnerRef{Login: "acme"}, Name: "widgets"},
	})
	require.NoError(t, err)
	require.NoError(t, h.dispatcher.Dispatch(ctx, "pull_request_review", changes))

	moments, err := h.moments.FindByType(ctx, domain.MomentAgentDrama, 10, 0)
	require.NoError(t, err)
	require.Len(t, moments, 1)
}

// An unresolvable forge login normalizes to Ignored and the dispatcher is
// a no-op: no error, no ELO change.
func TestDispatch_UnknownLogin_Ignored(t *testing.T) {
	h := newDispatcherHarness(time.Now())
	ctx := context.Background()
	h.newProject(t, "widgets", "acme", "widgets")

	payload, err := json.Marshal(ingest.PullRequestPayload{
		Action: "closed",
		Number: 1,
		PullRequest: ingest.PullRequestRef{
			Merged: true,
			Head:   ingest.HeadRef{SHA: "shaXX"},
			User:   ingest.UserRef{Login: "nobody"},
		},
		Repository: ingest.RepositoryRef{Owner: ingest.OwnerRef{Login: "acme"}, Name: "widgets"},
	})
	require.NoError(t, err)

	require.NoError(t, h.dispatcher.Dispatch(ctx, "pull_request", payload))

	contrib, err := h.contributions.FindByCommitSHA(ctx, "shaXX")
	require.NoError(t, err)
	assert.Nil(t, contrib)
}

// A malformed payload propagates an error so the HTTP boundary can answer
// with a 4xx (SPEC_FULL.md §4.1 error semantics).
func TestDispatch_MalformedPayload_Errors(t *testing.T) {
	h := newDispatcherHarness(time.Now())
	err := h.dispatcher.Dispatch(context.Background(), "pull_request", []byte("not json"))
	require.Error(t, err)
}

var _ ports.ForgeClient = (*memstore.ForgeDouble)(nil)
