package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentforge/reputation-engine/internal/eloengine"
	"github.com/agentforge/reputation-engine/internal/httpapi"
	"github.com/agentforge/reputation-engine/internal/logging"
	"github.com/agentforge/reputation-engine/internal/wiring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook ingress server and background longevity sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := wiring.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}
	defer app.Close()
	defer logging.Close()

	server := httpapi.NewServer("", cfg.Server.Port, app.Dispatcher, cfg.Server.WebhookSecret, access)

	go runSweepLoop(ctx, app.Sweeper)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		access.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("webhook server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runSweepLoop runs the longevity sweeper on cfg.Sweep.Interval until ctx is
// cancelled, logging each run's outcome at the domain logger.
func runSweepLoop(ctx context.Context, sweeper *eloengine.Sweeper) {
	ticker := time.NewTicker(cfg.Sweep.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := sweeper.Run(ctx)
			if err != nil {
				logging.Error("longevity sweep failed", "error", err)
				continue
			}
			logging.Info("longevity sweep completed", "eligible", result.Eligible, "paid", result.Paid, "failed", result.Failed)
		}
	}
}
