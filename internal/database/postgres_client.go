// Package database bootstraps the shared PostgreSQL connection pool every
// internal/pgrepo repository is built on top of, grounded on the teacher's
// internal/database.Client: same pgxpool.Pool wrapper, same fail-fast Ping
// on startup, same slog-backed logging of connection lifecycle — adapted
// from a metric-validation-specific client into a generic pool handle, since
// this domain's queries live in internal/pgrepo rather than on the client
// itself.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps the PostgreSQL connection pool shared by every repository
// in internal/pgrepo.
type Client struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// Config is the subset of config.StorageConfig needed to open a pool.
type Config struct {
	DSN      string
	MaxConns int32
}

// NewClient opens a connection pool against dsn and verifies connectivity
// before returning, so a misconfigured deployment fails at startup rather
// than on the first webhook.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logger := slog.Default().With("component", "postgres")
	logger.Info("postgres client connected", "max_conns", poolCfg.MaxConns)

	return &Client{Pool: pool, logger: logger}, nil
}

// Close closes the PostgreSQL connection pool.
func (c *Client) Close() {
	c.Pool.Close()
	c.logger.Info("postgres client closed")
}

// HealthCheck verifies PostgreSQL connectivity. The server's /healthz
// endpoint does not call it; it answers with a static status.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}
