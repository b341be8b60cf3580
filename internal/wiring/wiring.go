// Package wiring assembles the production dependency graph (Postgres
// repositories, the forge client, the bbolt dedup cache, the core
// components) from a loaded config.Config, so both the serve and sweep
// subcommands build the same graph instead of duplicating it.
package wiring

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/agentforge/reputation-engine/internal/clock"
	"github.com/agentforge/reputation-engine/internal/config"
	"github.com/agentforge/reputation-engine/internal/curator"
	"github.com/agentforge/reputation-engine/internal/database"
	"github.com/agentforge/reputation-engine/internal/eloengine"
	"github.com/agentforge/reputation-engine/internal/forge"
	"github.com/agentforge/reputation-engine/internal/ingest"
	"github.com/agentforge/reputation-engine/internal/pgrepo"
)

// App is the fully wired dependency graph shared by every subcommand.
type App struct {
	DB         *database.Client
	CacheDB    *bolt.DB
	Agents     *pgrepo.AgentRepo
	Projects   *pgrepo.ProjectRepo
	Contribs   *pgrepo.ContributionRepo
	Reviews    *pgrepo.ReviewRepo
	Rejections *pgrepo.RejectionTrackerRepo
	Events     *pgrepo.EloEventRepo
	Moments    *pgrepo.ViralMomentRepo
	Tickets    *pgrepo.TicketRepo
	Engage     *pgrepo.EngagementRepo
	Forge      *forge.Client
	Policies   *eloengine.Policies
	Mutator    *eloengine.Mutator
	Curator    *curator.Curator
	Normalizer *ingest.Normalizer
	Dispatcher *ingest.Dispatcher
	Sweeper    *eloengine.Sweeper
}

// Build opens the Postgres pool and the bbolt dedup cache, then wires every
// port and core component per SPEC_FULL.md §6.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewClient(ctx, database.Config{DSN: cfg.Storage.PostgresDSN, MaxConns: cfg.Storage.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	var cacheDB *bolt.DB
	if cfg.Storage.DedupCachePath != "" {
		cacheDB, err = bolt.Open(cfg.Storage.DedupCachePath, 0o600, nil)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("opening moment dedup cache: %w", err)
		}
	}

	forgeClient, err := forge.New(forge.Config{
		BaseURL:    cfg.Forge.BaseURL,
		Token:      cfg.Forge.Token,
		RateLimit:  cfg.Forge.RateLimit,
		MaxWorkers: cfg.Forge.MaxWorkers,
	})
	if err != nil {
		db.Close()
		if cacheDB != nil {
			cacheDB.Close()
		}
		return nil, fmt.Errorf("constructing forge client: %w", err)
	}

	agents := pgrepo.NewAgentRepo(db.Pool)
	projects := pgrepo.NewProjectRepo(db.Pool)
	contribs := pgrepo.NewContributionRepo(db.Pool)
	reviews := pgrepo.NewReviewRepo(db.Pool)
	rejections := pgrepo.NewRejectionTrackerRepo(db.Pool)
	events := pgrepo.NewEloEventRepo(db.Pool)
	moments := pgrepo.NewViralMomentRepo(db.Pool, cacheDB)
	tickets := pgrepo.NewTicketRepo(db.Pool)
	engage := pgrepo.NewEngagementRepo(db.Pool)

	realClock := clock.Real{}
	constants := eloengine.Constants{
		PrMerged:              cfg.Tuning.PrMerged,
		HighEloApproval:       cfg.Tuning.HighEloApproval,
		LongevityBonus:        cfg.Tuning.LongevityBonus,
		DependentPr:           cfg.Tuning.DependentPr,
		CommitReverted:        cfg.Tuning.CommitReverted,
		BugReferenced:         cfg.Tuning.BugReferenced,
		PrRejected:            cfg.Tuning.PrRejected,
		LowPeerReview:         cfg.Tuning.LowPeerReview,
		CodeReplaced:          cfg.Tuning.CodeReplaced,
		LongevityDays:         cfg.Tuning.LongevityDays,
		ReplacementWindowDays: cfg.Tuning.ReplacementWindowDays,
		MaxReviewsPerHour:     cfg.Tuning.MaxReviewsPerHour,
		HighEloThreshold:      cfg.Tuning.HighEloThreshold,
	}

	mutator := eloengine.NewMutator(agents, events, realClock)
	policies := eloengine.NewPolicies(mutator, contribs, reviews, realClock, constants)

	thresholds := curator.Thresholds{
		MinShameScore:      cfg.Curator.MinShameScore,
		MinDramaScore:      cfg.Curator.MinDramaScore,
		MinEloDifferential: cfg.Curator.MinEloDifferential,
		MinBattleRacers:    cfg.Curator.MinBattleRacers,
	}
	mc := curator.New(moments, agents, forgeClient, realClock, thresholds)

	normalizer := ingest.NewNormalizer(agents, projects)
	dispatcher := ingest.NewDispatcher(normalizer, policies, mc, agents, projects, contribs, reviews, rejections, forgeClient)

	sweeper := eloengine.NewSweeper(policies)
	sweeper.BatchSize = cfg.Sweep.BatchSize

	return &App{
		DB: db, CacheDB: cacheDB,
		Agents: agents, Projects: projects, Contribs: contribs, Reviews: reviews,
		Rejections: rejections, Events: events, Moments: moments, Tickets: tickets, Engage: engage,
		Forge: forgeClient, Policies: policies, Mutator: mutator, Curator: mc,
		Normalizer: normalizer, Dispatcher: dispatcher, Sweeper: sweeper,
	}, nil
}

// Close releases every resource Build opened.
func (a *App) Close() {
	if a.CacheDB != nil {
		a.CacheDB.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
