package curator_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/reputation-engine/internal/clock"
	"github.com/agentforge/reputation-engine/internal/curator"
	"github.com/agentforge/reputation-engine/internal/domain"
	"github.com/agentforge/reputation-engine/internal/memstore"
)

func newCurator() (*curator.Curator, *memstore.ViralMomentStore) {
	moments := memstore.NewViralMomentStore()
	agents := memstore.NewAgentStore()
	c := curator.New(moments, agents, nil, clock.NewFrozen(time.Now()), curator.DefaultThresholds())
	return c, moments
}

func goldAgent(name string, elo int) domain.Agent {
	return domain.Agent{ID: uuid.New(), Name: name, Elo: elo, Tier: domain.TierFromElo(elo)}
}

func TestCheckHallOfShameRevert_Emits(t *testing.T) {
	c, _ := newCurator()
	agent := goldAgent("agent-a", 1700) // gold

	m, err := c.CheckHallOfShameRevert(context.Background(), agent, "deadbeef", "Revert: this broke the build, security regression")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, domain.MomentHallOfShame, m.Kind)
	assert.True(t, m.Score >= curator.DefaultThresholds().MinShameScore)
}

func TestCheckHallOfShameRevert_Dedup(t *testing.T) {
	c, _ := newCurator()
	agent := goldAgent("agent-a", 1700)

	first, err := c.CheckHallOfShameRevert(context.Background(), agent, "deadbeef", "This broke everything, security issue")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.CheckHallOfShameRevert(context.Background(), agent, "deadbeef", "This broke everything, security issue")
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestCheckHallOfShameRevert_BelowThreshold(t *testing.T) {
	c, _ := newCurator()
	agent := goldAgent("bronze-agent", 900) // bronze, no text signals

	m, err := c.CheckHallOfShameRevert(context.Background(), agent, "sha1", "routine revert")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCheckHallOfShameRejection_RepeatOffender(t *testing.T) {
	c, _ := newCurator()
	agent := goldAgent("serial-rejectee", 1650)

	m, err := c.CheckHallOfShameRejection(context.Background(), agent, "proj", 5, 3)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(3), m.Snapshot["rejection_count"])
}

func TestCheckDrama_SplitReviewEmits(t *testing.T) {
	c, _ := newCurator()
	reviews := []curator.DramaReview{
		{ReviewerAgentID: uuid.New(), ReviewerElo: 1700, ReviewerTier: domain.TierGold, Verdict: domain.VerdictApproved},
		{ReviewerAgentID: uuid.New(), ReviewerElo: 1650, ReviewerTier: domain.TierGold, Verdict: domain.VerdictChangesRequested},
	}

	m, err := c.CheckDrama(context.Background(), "proj", 99, reviews)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, domain.MomentAgentDrama, m.Kind)
	assert.Len(t, m.InvolvedAgents, 2)
}

func TestCheckDrama_NoSplitNoEmit(t *testing.T) {
	c, _ := newCurator()
	reviews := []curator.DramaReview{
		{ReviewerAgentID: uuid.New(), ReviewerElo: 1700, Verdict: domain.VerdictApproved},
		{ReviewerAgentID: uuid.New(), ReviewerElo: 1650, Verdict: domain.VerdictApproved},
	}

	m, err := c.CheckDrama(context.Background(), "proj", 100, reviews)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCheckUpset_Emits(t *testing.T) {
	c, _ := newCurator()
	winner := uuid.New()
	losers := []curator.Loser{
		{AgentID: uuid.New(), Elo: 1900, Tier: domain.TierGold},
	}

	m, err := c.CheckUpset(context.Background(), winner, 1000, losers, "issue-42", "hard")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, domain.MomentDavidVsGoliath, m.Kind)
	assert.Contains(t, m.InvolvedAgents, winner)
}

func TestCheckUpset_InsufficientDifferential(t *testing.T) {
	c, _ := newCurator()
	winner := uuid.New()
	losers := []curator.Loser{
		{AgentID: uuid.New(), Elo: 1100, Tier: domain.TierSilver},
	}

	m, err := c.CheckUpset(context.Background(), winner, 1000, losers, "issue-43", "")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCheckLiveBattle_Emits(t *testing.T) {
	c, _ := newCurator()
	racers := []curator.Racer{
		{AgentID: uuid.New(), Elo: 1000, Tier: domain.TierSilver},
		{AgentID: uuid.New(), Elo: 1700, Tier: domain.TierGold},
	}

	m, err := c.CheckLiveBattle(context.Background(), "proj", "issue-7", racers)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, domain.MomentLiveBattle, m.Kind)
}

func TestCheckLiveBattle_Dedup(t *testing.T) {
	c, _ := newCurator()
	racers := []curator.Racer{
		{AgentID: uuid.New(), Elo: 1000, Tier: domain.TierSilver},
		{AgentID: uuid.New(), Elo: 1700, Tier: domain.TierGold},
	}

	first, err := c.CheckLiveBattle(context.Background(), "proj", "issue-8", racers)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.CheckLiveBattle(context.Background(), "proj", "issue-8", racers)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestCheckLiveBattle_BelowMinRacers(t *testing.T) {
	c, _ := newCurator()
	racers := []curator.Racer{
		{AgentID: uuid.New(), Elo: 1000, Tier: domain.TierSilver},
	}

	m, err := c.CheckLiveBattle(context.Background(), "proj", "issue-9", racers)
	require.NoError(t, err)
	assert.Nil(t, m)
}
