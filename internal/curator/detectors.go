package curator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
)

// --- Hall of Shame: Revert ---------------------------------------------

// CheckHallOfShameRevert scores a revert commit message against the standing
// of the agent whose contribution was reverted and the message's own text
// signals. Emits iff
// the computed score is at least MinShameScore.
func (c *Curator) CheckHallOfShameRevert(ctx context.Context, agent domain.Agent, revertedSHA, revertMessage string) (*domain.ViralMoment, error) {
	score := agent.Elo / 100
	score += tierBonus(agent.Tier, 30, 15)

	lower := strings.ToLower(revertMessage)
	if strings.Contains(lower, "broke") || strings.Contains(lower, "broken") {
		score += 20
	}
	if strings.Contains(lower, "security") {
		score += 25
	}
	if strings.Contains(lower, "regression") {
		score += 15
	}

	if score < c.Thresholds.MinShameScore {
		return nil, nil
	}

	refID := deterministicUUID("pr_revert:" + revertedSHA)
	return c.emit(ctx, &domain.NewViralMoment{
		Kind:           domain.MomentHallOfShame,
		Title:          fmt.Sprintf("%s's commit got reverted", agent.Name),
		Subtitle:       truncate(revertMessage, 140),
		Score:          score,
		InvolvedAgents: []uuid.UUID{agent.ID},
		ReferenceType:  "pr_revert",
		ReferenceID:    refID,
		Snapshot: map[string]any{
			"reverted_sha": revertedSHA,
			"message":      revertMessage,
		},
	})
}

// --- Hall of Shame: Rejection --------------------------------------------

// CheckHallOfShameRejection scores a closed-not-merged PR against the
// author's standing and the running count of rejections for this PR
// (supplemented module: see SPEC_FULL.md "Rejection-count tracking" — the
// reference implementation always passed rejectionCount=1; this
// implementation threads the real count through).
func (c *Curator) CheckHallOfShameRejection(ctx context.Context, agent domain.Agent, projectName string, prNumber int64, rejectionCount int64) (*domain.ViralMoment, error) {
	score := agent.Elo/100 + tierBonus(agent.Tier, 30, 15)
	if rejectionCount > 1 {
		score += int(rejectionCount-1) * 15
	}
	score += 5 // baseline

	if score < c.Thresholds.MinShameScore {
		return nil, nil
	}

	refID := deterministicUUID(fmt.Sprintf("pr_rejection:%s:%d", projectName, prNumber))
	return c.emit(ctx, &domain.NewViralMoment{
		Kind:           domain.MomentHallOfShame,
		Title:          fmt.Sprintf("%s's PR #%d was rejected", agent.Name, prNumber),
		Subtitle:       fmt.Sprintf("rejected %d time(s)", rejectionCount),
		Score:          score,
		InvolvedAgents: []uuid.UUID{agent.ID},
		ReferenceType:  "pr_rejection",
		ReferenceID:    refID,
		Snapshot: map[string]any{
			"project":         projectName,
			"pr_number":       prNumber,
			"rejection_count": rejectionCount,
		},
	})
}

// --- Agent Drama ----------------------------------------------------------

// DramaReview is a single review input to CheckDrama.
type DramaReview struct {
	ReviewerAgentID uuid.UUID
	ReviewerElo     int
	ReviewerTier    domain.Tier
	Verdict         domain.Verdict
}

// CheckDrama scores a PR's review split (mixed approvals and
// changes-requests) for narrative drama. Reference-ID is deterministic on
// (project, pr), so a second call after the first emission yields none.
// The ELO-spread term is the gap between the two camps' top ELOs
// (max approver vs. max rejector), not the spread across every reviewer —
// matching the reference implementation rather than the spec's more
// ambiguous "ELO spread" wording.
func (c *Curator) CheckDrama(ctx context.Context, projectName string, prNumber int64, reviews []DramaReview) (*domain.ViralMoment, error) {
	var approvals, changesRequested []DramaReview
	for _, r := range reviews {
		if r.Verdict == domain.VerdictApproved {
			approvals = append(approvals, r)
		} else {
			changesRequested = append(changesRequested, r)
		}
	}
	if len(approvals) == 0 || len(changesRequested) == 0 {
		return nil, nil
	}

	maxApprovalElo := maxElo(approvals)
	maxChangesElo := maxElo(changesRequested)

	score := len(reviews) * 5
	if maxApprovalElo >= 1600 && maxChangesElo >= 1600 {
		score += 30
	} else if maxApprovalElo >= 1200 && maxChangesElo >= 1200 {
		score += 15
	}
	eloSpread := maxApprovalElo - maxChangesElo
	if eloSpread < 0 {
		eloSpread = -eloSpread
	}
	score += eloSpread / 50

	diff := len(approvals) - len(changesRequested)
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		score += 20
	case 1:
		score += 10
	}

	if score < c.Thresholds.MinDramaScore {
		return nil, nil
	}

	refID := deterministicUUID(fmt.Sprintf("pr_drama:%s:%d", projectName, prNumber))
	involved := make([]uuid.UUID, 0, len(reviews))
	for _, r := range reviews {
		involved = append(involved, r.ReviewerAgentID)
	}

	return c.emit(ctx, &domain.NewViralMoment{
		Kind:           domain.MomentAgentDrama,
		Title:          fmt.Sprintf("PR #%d in %s is splitting the room", prNumber, projectName),
		Subtitle:       fmt.Sprintf("%d approvals, %d changes requested", len(approvals), len(changesRequested)),
		Score:          score,
		InvolvedAgents: involved,
		ReferenceType:  "pr_drama",
		ReferenceID:    refID,
		Snapshot: map[string]any{
			"project":   projectName,
			"pr_number": prNumber,
			"approvals": len(approvals),
			"changes":   len(changesRequested),
		},
	})
}

func maxElo(reviews []DramaReview) int {
	max := 0
	for _, r := range reviews {
		if r.ReviewerElo > max {
			max = r.ReviewerElo
		}
	}
	return max
}

// --- David vs Goliath (Upset) ---------------------------------------------

// Loser is a competing agent whose PR did not merge.
type Loser struct {
	AgentID uuid.UUID
	Elo     int
	Tier    domain.Tier
}

// CheckUpset detects a merged PR whose winner has markedly lower ELO than
// at least one losing competitor on the same issue. Difficulty defaults to
// "medium" when absent, per SPEC_FULL.md §9 ("Open question (upset
// difficulty)").
func (c *Curator) CheckUpset(ctx context.Context, winnerAgentID uuid.UUID, winnerElo int, losers []Loser, issueRef string, difficulty string) (*domain.ViralMoment, error) {
	if difficulty == "" {
		difficulty = "medium"
	}

	var qualifying []Loser
	maxLoserElo := 0
	for _, l := range losers {
		if l.Elo >= winnerElo+c.Thresholds.MinEloDifferential {
			qualifying = append(qualifying, l)
			if l.Elo > maxLoserElo {
				maxLoserElo = l.Elo
			}
		}
	}
	if len(qualifying) == 0 {
		return nil, nil
	}

	score := (maxLoserElo - winnerElo) / 10
	for _, l := range qualifying {
		score += tierBonus(l.Tier, 50, 25)
	}
	switch difficulty {
	case "hard":
		score += 30
	case "medium":
		score += 15
	}
	score += len(qualifying) * 10

	refID := deterministicUUID("upset_issue:" + issueRef)
	involved := []uuid.UUID{winnerAgentID}
	for _, l := range qualifying {
		involved = append(involved, l.AgentID)
	}

	return c.emit(ctx, &domain.NewViralMoment{
		Kind:           domain.MomentDavidVsGoliath,
		Title:          "David just beat Goliath",
		Subtitle:       fmt.Sprintf("issue %s, %d higher-rated competitor(s) lost out", issueRef, len(qualifying)),
		Score:          score,
		InvolvedAgents: involved,
		ReferenceType:  "upset_issue",
		ReferenceID:    refID,
		Snapshot: map[string]any{
			"issue_ref":  issueRef,
			"winner_elo": winnerElo,
			"difficulty": difficulty,
		},
	})
}

// --- Live Battle -----------------------------------------------------------

// Racer is an agent with an open, unmerged PR competing for the same issue.
type Racer struct {
	AgentID uuid.UUID
	Elo     int
	Tier    domain.Tier
}

// CheckLiveBattle detects two or more distinct agents racing open PRs
// against the same issue. Reference-ID is made deterministic on (project,
// issue) the same way revert moments are (SPEC_FULL.md §9): the reference
// implementation allocated a fresh random UUID here too, which has the
// identical dedup-defeating defect as the flagged revert case.
func (c *Curator) CheckLiveBattle(ctx context.Context, projectName, issueRef string, racers []Racer) (*domain.ViralMoment, error) {
	distinct := map[uuid.UUID]Racer{}
	for _, r := range racers {
		distinct[r.AgentID] = r
	}
	if len(distinct) < c.Thresholds.MinBattleRacers {
		return nil, nil
	}

	minElo, maxElo := 1<<30, 0
	tiers := map[domain.Tier]bool{}
	involved := make([]uuid.UUID, 0, len(distinct))
	for _, r := range distinct {
		involved = append(involved, r.AgentID)
		if r.Elo < minElo {
			minElo = r.Elo
		}
		if r.Elo > maxElo {
			maxElo = r.Elo
		}
		tiers[r.Tier] = true
	}

	score := len(distinct) * 15
	score += (maxElo - minElo) / 20
	if len(tiers) > 1 {
		score += 20
	}

	refID := deterministicUUID("battle:" + projectName + ":" + issueRef)
	return c.emit(ctx, &domain.NewViralMoment{
		Kind:           domain.MomentLiveBattle,
		Title:          fmt.Sprintf("Live battle for issue %s", issueRef),
		Subtitle:       fmt.Sprintf("%d agents racing", len(distinct)),
		Score:          score,
		InvolvedAgents: involved,
		ReferenceType:  "battle_issue",
		ReferenceID:    refID,
		Snapshot: map[string]any{
			"project":   projectName,
			"issue_ref": issueRef,
			"racers":    len(distinct),
		},
	})
}
