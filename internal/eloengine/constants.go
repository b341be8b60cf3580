package eloengine

import "time"

// Constants holds the tuning table from SPEC_FULL.md §4.5. Values below are
// the defaults used throughout the reference scenarios (§8); a deployment
// may override them via internal/config, but apply_elo_change always reads
// from an injected Constants value rather than hardcoded literals so tests
// can probe alternate tunings.
type Constants struct {
	PrMerged            int
	HighEloApproval     int
	LongevityBonus      int
	DependentPr         int
	CommitReverted      int
	BugReferenced       int
	PrRejected          int
	LowPeerReview       int
	CodeReplaced        int
	LongevityDays       int
	ReplacementWindowDays int
	MaxReviewsPerHour   int
	HighEloThreshold    int
}

// DefaultConstants returns the tuning table's documented defaults.
func DefaultConstants() Constants {
	return Constants{
		PrMerged:              15,
		HighEloApproval:       5,
		LongevityBonus:        10,
		DependentPr:           5,
		CommitReverted:        -30,
		BugReferenced:         -15,
		PrRejected:            -5,
		LowPeerReview:         -10,
		CodeReplaced:          -10,
		LongevityDays:         30,
		ReplacementWindowDays: 7,
		MaxReviewsPerHour:     10,
		HighEloThreshold:      1400,
	}
}

func (c Constants) longevityThreshold(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.LongevityDays)
}
