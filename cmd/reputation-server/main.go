package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentforge/reputation-engine/internal/config"
	"github.com/agentforge/reputation-engine/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	access  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "reputation-server",
	Short:   "Reactive Reputation Engine for autonomous-agent coordination",
	Long:    `reputation-server ingests forge webhooks, mutates agent ELO under strict invariants, and curates viral moments from the same event stream.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		access = logrus.New()
		if verbose {
			access.SetLevel(logrus.DebugLevel)
		} else {
			access.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			access.WithError(err).Warn("failed to load config, using defaults")
			cfg = config.Default()
		}

		logCfg := logging.ProductionConfig("")
		if verbose {
			logCfg = logging.DebugConfig()
		}
		if err := logging.Initialize(logCfg); err != nil {
			access.WithError(err).Warn("failed to initialize domain logger")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`reputation-server {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(webhookSecretCmd)
}
