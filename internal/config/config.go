package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable of the reputation engine: the ELO tuning
// table, forge connection details, storage, and the webhook server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Forge   ForgeConfig   `yaml:"forge"`
	Tuning  TuningConfig  `yaml:"tuning"`
	Curator CuratorConfig `yaml:"curator"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

// ServerConfig controls the webhook ingress listener.
type ServerConfig struct {
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	WebhookSecret string        `yaml:"webhook_secret"`
}

// StorageConfig holds the Postgres connection string backing every
// repository port (internal/pgrepo).
type StorageConfig struct {
	PostgresDSN    string        `yaml:"postgres_dsn"`
	MaxConns       int32         `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	DedupCachePath string        `yaml:"dedup_cache_path"` // bbolt file backing the moment-dedup fast path
}

// ForgeConfig addresses the Gitea-compatible forge the core reads PRs,
// reviews, and branches from.
type ForgeConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"`
	RateLimit  float64       `yaml:"rate_limit"` // requests/sec, golang.org/x/time/rate
	Timeout    time.Duration `yaml:"timeout"`
	MaxWorkers int           `yaml:"max_workers"` // errgroup fan-out bound
}

// TuningConfig mirrors eloengine.Constants so the trigger-to-delta table
// can be overridden per deployment without a recompile; Default() matches
// the documented defaults exactly.
type TuningConfig struct {
	PrMerged              int `yaml:"pr_merged"`
	HighEloApproval       int `yaml:"high_elo_approval"`
	LongevityBonus        int `yaml:"longevity_bonus"`
	DependentPr           int `yaml:"dependent_pr"`
	CommitReverted        int `yaml:"commit_reverted"`
	BugReferenced         int `yaml:"bug_referenced"`
	PrRejected            int `yaml:"pr_rejected"`
	LowPeerReview         int `yaml:"low_peer_review"`
	CodeReplaced          int `yaml:"code_replaced"`
	LongevityDays         int `yaml:"longevity_days"`
	ReplacementWindowDays int `yaml:"replacement_window_days"`
	MaxReviewsPerHour     int `yaml:"max_reviews_per_hour"`
	HighEloThreshold      int `yaml:"high_elo_threshold"`
}

// CuratorConfig mirrors curator.Thresholds.
type CuratorConfig struct {
	MinShameScore      int `yaml:"min_shame_score"`
	MinDramaScore      int `yaml:"min_drama_score"`
	MinEloDifferential int `yaml:"min_elo_differential"`
	MinBattleRacers    int `yaml:"min_battle_racers"`
}

// SweepConfig controls the longevity sweeper's run cadence.
type SweepConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

// Default returns the engine's documented tuning and threshold defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			MaxConns:       10,
			ConnectTimeout: 10 * time.Second,
			DedupCachePath: "reputation-engine.bbolt",
		},
		Forge: ForgeConfig{
			RateLimit:  5,
			Timeout:    10 * time.Second,
			MaxWorkers: 8,
		},
		Tuning: TuningConfig{
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
		},
		Curator: CuratorConfig{
			MinShameScore:      10,
			MinDramaScore:      10,
			MinEloDifferential: 200,
			MinBattleRacers:    2,
		},
		Sweep: SweepConfig{
			Interval:  time.Hour,
			BatchSize: 500,
		},
	}
}

// Load loads configuration from an optional file plus environment
// overrides, following the teacher's Load(path)/applyEnvOverrides shape.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("server", cfg.Server)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("forge", cfg.Forge)
	v.SetDefault("tuning", cfg.Tuning)
	v.SetDefault("curator", cfg.Curator)
	v.SetDefault("sweep", cfg.Sweep)

	v.SetEnvPrefix("REPUTATION")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".reputation-engine"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadEnvFiles() {
	envFiles := []string{".env.local", ".env"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// applyEnvOverrides layers plain environment variables on top of whatever
// viper resolved, so a bare `export POSTGRES_DSN=...` works without a
// REPUTATION_ prefix (matching operator habit for the common secrets).
func applyEnvOverrides(cfg *Config) {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		cfg.Server.WebhookSecret = secret
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if baseURL := os.Getenv("FORGE_BASE_URL"); baseURL != "" {
		cfg.Forge.BaseURL = baseURL
	}
	if token := os.Getenv("FORGE_TOKEN"); token != "" {
		cfg.Forge.Token = token
	}
	if rate := os.Getenv("FORGE_RATE_LIMIT"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Forge.RateLimit = r
		}
	}
}

// Save writes the configuration to path as YAML (operator tooling, mirrors
// the teacher's Save(path)).
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server", c.Server)
	v.Set("storage", c.Storage)
	v.Set("forge", c.Forge)
	v.Set("tuning", c.Tuning)
	v.Set("curator", c.Curator)
	v.Set("sweep", c.Sweep)

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
