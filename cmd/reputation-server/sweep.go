package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentforge/reputation-engine/internal/wiring"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one longevity sweep and exit",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := wiring.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}
	defer app.Close()

	result, err := app.Sweeper.Run(ctx)
	if err != nil {
		return fmt.Errorf("running longevity sweep: %w", err)
	}

	fmt.Printf("longevity sweep: %d eligible, %d paid, %d failed\n", result.Eligible, result.Paid, result.Failed)
	return nil
}
