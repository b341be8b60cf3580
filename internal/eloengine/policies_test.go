package eloengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/reputation-engine/internal/clock"
	"github.com/agentforge/reputation-engine/internal/domain"
	"github.com/agentforge/reputation-engine/internal/eloengine"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
	"github.com/agentforge/reputation-engine/internal/memstore"
)

type harness struct {
	agents        *memstore.AgentStore
	contributions *memstore.ContributionStore
	reviews       *memstore.ReviewStore
	events        *memstore.EloEventStore
	policies      *eloengine.Policies
	clock         *clock.Frozen
}

func newHarness(now time.Time) *harness {
	agents := memstore.NewAgentStore()
	contributions := memstore.NewContributionStore()
	reviews := memstore.NewReviewStore()
	events := memstore.NewEloEventStore()
	c := clock.NewFrozen(now)
	mutator := eloengine.NewMutator(agents, events, c)
	policies := eloengine.NewPolicies(mutator, contributions, reviews, c, eloengine.DefaultConstants())
	return &harness{agents: agents, contributions: contributions, reviews: reviews, events: events, policies: policies, clock: c}
}

func (h *harness) newAgent(t *testing.T, name string, elo int) uuid.UUID {
	t.Helper()
	a, err := h.agents.Create(context.Background(), &domain.NewAgent{Name: name, ForgeLogin: name, APIKeyHash: "x"})
	require.NoError(t, err)
	require.NoError(t, h.agents.UpdateElo(context.Background(), a.ID, elo))
	return a.ID
}

// E1 — Merge then revert.
func TestE1_MergeThenRevert(t *testing.T) {
	h := newHarness(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	agentA := h.newAgent(t, "agent-a", 1000)
	project := uuid.New()

	_, err := h.policies.OnPrMerged(ctx, agentA, project, 42, "sha42")
	require.NoError(t, err)

	got, err := h.agents.FindByID(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, 1015, got.Elo)

	_, err = h.policies.OnCommitReverted(ctx, "sha42", "sha99")
	require.NoError(t, err)

	got, err = h.agents.FindByID(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, 985, got.Elo)

	contrib, err := h.contributions.FindByCommitSHA(ctx, "sha42")
	require.NoError(t, err)
	assert.Equal(t, domain.ContributionReverted, contrib.Status)

	events := h.events.All()
	require.Len(t, events, 2)
	assert.Equal(t, 15, events[0].Delta)
	assert.Equal(t, -30, events[1].Delta)
}

// E2 — Longevity bonus paid once.
func TestE2_Longevity(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	h := newHarness(now.AddDate(0, 0, -31))
	ctx := context.Background()
	agentA := h.newAgent(t, "agent-a", 1000)
	project := uuid.New()

	_, err := h.policies.OnPrMerged(ctx, agentA, project, 1, "sha-longevity")
	require.NoError(t, err)

	h.clock.Set(now)
	sweeper := eloengine.NewSweeper(h.policies)

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Paid)

	got, err := h.agents.FindByID(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, 1025, got.Elo) // +15 merge, +10 longevity

	// Running again must not pay twice.
	result, err = sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Paid)

	got, err = h.agents.FindByID(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, 1025, got.Elo)
}

// E3 — High-ELO approval boundary.
func TestE3_HighEloApproval(t *testing.T) {
	h := newHarness(time.Now())
	ctx := context.Background()
	project := uuid.New()

	reviewer := h.newAgent(t, "reviewer", 1400)
	reviewed := h.newAgent(t, "reviewed", 1000)

	_, change, err := h.policies.OnPeerReview(ctx, project, 7, reviewer, reviewed, 1400, domain.VerdictApproved)
	require.NoError(t, err)
	require.NotNil(t, change)

	got, err := h.agents.FindByID(ctx, reviewed)
	require.NoError(t, err)
	assert.Equal(t, 1005, got.Elo)
}

func TestE3_HighEloApproval_BelowThreshold(t *testing.T) {
	h := newHarness(time.Now())
	ctx := context.Background()
	project := uuid.New()

	reviewer := h.newAgent(t, "reviewer", 1399)
	reviewed := h.newAgent(t, "reviewed", 1000)

	_, change, err := h.policies.OnPeerReview(ctx, project, 8, reviewer, reviewed, 1399, domain.VerdictApproved)
	require.NoError(t, err)
	assert.Nil(t, change)

	got, err := h.agents.FindByID(ctx, reviewed)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Elo)
}

// E4 — Clamping at zero.
func TestE4_Clamping(t *testing.T) {
	h := newHarness(time.Now())
	ctx := context.Background()
	agentA := h.newAgent(t, "agent-a", 10)
	project := uuid.New()

	_, err := h.contributions.Create(ctx, &domain.NewCodeContribution{
		AgentID: agentA, ProjectID: project, PRNumber: 1, CommitSHA: "X", MergedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = h.policies.OnCommitReverted(ctx, "X", "Y")
	require.NoError(t, err)

	got, err := h.agents.FindByID(ctx, agentA)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Elo)

	events := h.events.All()
	require.Len(t, events, 1)
	assert.Equal(t, 10, events[0].OldElo)
	assert.Equal(t, 0, events[0].NewElo)
	assert.Equal(t, -30, events[0].Delta)
}

// E5 — Rate limit.
func TestE5_RateLimit(t *testing.T) {
	h := newHarness(time.Now())
	ctx := context.Background()
	reviewer := h.newAgent(t, "reviewer", 1000)
	project := uuid.New()

	for i := int64(0); i < 10; i++ {
		reviewed := h.newAgent(t, "reviewed", 1000)
		_, _, err := h.policies.OnPeerReview(ctx, project, i, reviewer, reviewed, 1000, domain.VerdictApproved)
		require.NoError(t, err)
	}

	reviewed := h.newAgent(t, "reviewed-11th", 1000)
	_, _, err := h.policies.OnPeerReview(ctx, project, 11, reviewer, reviewed, 1000, domain.VerdictApproved)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestNoSelfReview(t *testing.T) {
	h := newHarness(time.Now())
	ctx := context.Background()
	agent := h.newAgent(t, "solo", 1000)
	project := uuid.New()

	_, _, err := h.policies.OnPeerReview(ctx, project, 1, agent, agent, 1000, domain.VerdictApproved)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDuplicateReviewRejected(t *testing.T) {
	h := newHarness(time.Now())
	ctx := context.Background()
	reviewer := h.newAgent(t, "reviewer", 1000)
	reviewed := h.newAgent(t, "reviewed", 1000)
	project := uuid.New()

	_, _, err := h.policies.OnPeerReview(ctx, project, 1, reviewer, reviewed, 1000, domain.VerdictApproved)
	require.NoError(t, err)

	_, _, err = h.policies.OnPeerReview(ctx, project, 1, reviewer, reviewed, 1000, domain.VerdictApproved)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRevertIdempotent(t *testing.T) {
	h := newHarness(time.Now())
	ctx := context.Background()
	agentA := h.newAgent(t, "agent-a", 1000)
	project := uuid.New()

	_, err := h.policies.OnPrMerged(ctx, agentA, project, 1, "sha-idem")
	require.NoError(t, err)

	_, err = h.policies.OnCommitReverted(ctx, "sha-idem", "r1")
	require.NoError(t, err)

	// Second revert of the same sha must be a no-op.
	change, err := h.policies.OnCommitReverted(ctx, "sha-idem", "r2")
	require.NoError(t, err)
	assert.Nil(t, change)

	events := h.events.All()
	assert.Len(t, events, 2) // merge + one revert, not two reverts
}

func TestCodeReplacedOutsideWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	h := newHarness(now)
	ctx := context.Background()
	agentA := h.newAgent(t, "agent-a", 1000)
	project := uuid.New()

	h.clock.Set(now.AddDate(0, 0, -20))
	_, err := h.policies.OnPrMerged(ctx, agentA, project, 1, "sha-replace")
	require.NoError(t, err)

	contrib, err := h.contributions.FindByCommitSHA(ctx, "sha-replace")
	require.NoError(t, err)

	h.clock.Set(now)
	change, err := h.policies.OnCodeReplaced(ctx, contrib.ID)
	require.NoError(t, err)
	assert.Nil(t, change) // outside the 7-day window, no penalty applied
}
