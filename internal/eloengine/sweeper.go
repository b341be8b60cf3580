package eloengine

import (
	"context"

	"github.com/agentforge/reputation-engine/internal/domain"
	"github.com/agentforge/reputation-engine/internal/logging"
)

// defaultSweepBatchSize bounds how many contributions a single sweep run
// processes, so a sweep cannot monopolize the single writer (SPEC_FULL.md
// §5 "Timeouts").
const defaultSweepBatchSize = 500

// Sweeper is the Longevity Sweeper (C7): a periodic job that finds healthy
// contributions past the longevity threshold whose bonus is unpaid and
// pays each via the Reputation Policies. Mark-paid precedes the ELO apply
// so a crash between them does not pay twice on retry (the mark-paid write
// is itself the idempotence guard described in SPEC_FULL.md §4.6).
type Sweeper struct {
	Policies  *Policies
	BatchSize int
}

func NewSweeper(policies *Policies) *Sweeper {
	return &Sweeper{Policies: policies, BatchSize: defaultSweepBatchSize}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Eligible int
	Paid     int
	Failed   int
}

// Run executes one sweep: find all eligible contributions and pay each,
// continuing past single-contribution failures (log and move on) so the
// sweep as a whole stays retry-safe.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	now := s.Policies.Clock.Now()
	threshold := now.AddDate(0, 0, -s.Policies.Constants.LongevityDays)

	contributions, err := s.Policies.Contributions.FindEligibleForLongevityBonus(ctx, threshold)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Eligible: len(contributions)}
	limit := s.BatchSize
	if limit <= 0 {
		limit = defaultSweepBatchSize
	}

	for i, c := range contributions {
		if i >= limit {
			logging.Info("longevity sweep batch limit reached, remaining contributions deferred to next run", "limit", limit, "remaining", len(contributions)-limit)
			break
		}

		if err := s.Policies.Contributions.MarkLongevityBonusPaid(ctx, c.ID); err != nil {
			logging.Error("failed to mark longevity bonus paid", "contribution_id", c.ID, "error", err)
			result.Failed++
			continue
		}

		if _, err := s.Policies.Mutator.Apply(ctx, c.AgentID, s.Policies.Constants.LongevityBonus, domain.EloEventLongevityBonus, refPtr(c.ID), nil); err != nil {
			logging.Error("failed to apply longevity bonus", "contribution_id", c.ID, "error", err)
			result.Failed++
			continue
		}

		result.Paid++
	}

	return result, nil
}
