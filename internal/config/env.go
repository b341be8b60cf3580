package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/agentforge/reputation-engine/internal/curator"
	"github.com/agentforge/reputation-engine/internal/eloengine"
)

// ToConstants projects TuningConfig onto eloengine.Constants, the shape the
// ELO Mutator and Reputation Policies actually consume.
func (c TuningConfig) ToConstants() eloengine.Constants {
	return eloengine.Constants{
		PrMerged:              c.PrMerged,
		HighEloApproval:       c.HighEloApproval,
		LongevityBonus:        c.LongevityBonus,
		DependentPr:           c.DependentPr,
		CommitReverted:        c.CommitReverted,
		BugReferenced:         c.BugReferenced,
		PrRejected:            c.PrRejected,
		LowPeerReview:         c.LowPeerReview,
		CodeReplaced:          c.CodeReplaced,
		LongevityDays:         c.LongevityDays,
		ReplacementWindowDays: c.ReplacementWindowDays,
		MaxReviewsPerHour:     c.MaxReviewsPerHour,
		HighEloThreshold:      c.HighEloThreshold,
	}
}

// ToThresholds projects CuratorConfig onto curator.Thresholds.
func (c CuratorConfig) ToThresholds() curator.Thresholds {
	return curator.Thresholds{
		MinShameScore:      c.MinShameScore,
		MinDramaScore:      c.MinDramaScore,
		MinEloDifferential: c.MinEloDifferential,
		MinBattleRacers:    c.MinBattleRacers,
	}
}

// Validate checks that the settings required for a production deployment
// are present (mirrors the teacher's EnvLoader.Validate/ValidateWithGitHub
// shape, adapted to this service's required secrets).
func (c *Config) Validate() error {
	var missing []string
	if c.Storage.PostgresDSN == "" {
		missing = append(missing, "POSTGRES_DSN")
	}
	if c.Forge.BaseURL == "" {
		missing = append(missing, "FORGE_BASE_URL")
	}
	if c.Forge.Token == "" {
		missing = append(missing, "FORGE_TOKEN")
	}
	if c.Server.WebhookSecret == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

// GetString returns the named environment variable or a default.
func GetString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// GetInt returns the named environment variable parsed as int, or a default.
func GetInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// GetBool returns the named environment variable parsed as bool, or a
// default.
func GetBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
