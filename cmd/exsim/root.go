package main

import (
	"github.com/spf13/cobra"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/scoring"
)

var rootCmd = &cobra.Command{
	Use:           "exsim",
	Short:         "Adaptive cognitive assessment engine",
	Long:          "exsim runs adaptive cognitive assessment sessions over HTTP or in the terminal.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(reportsCmd)
}

// policyFromConfig applies the SCORE_* overrides to the default policy.
func policyFromConfig(cfg *config.Config) *scoring.Policy {
	p := scoring.DefaultPolicy()
	p.Center = cfg.ScoreCenter
	if cfg.ScoreSpread > 0 {
		p.Spread = cfg.ScoreSpread
	}
	p.MinIndex = cfg.ScoreMin
	p.MaxIndex = cfg.ScoreMax
	return &p
}
