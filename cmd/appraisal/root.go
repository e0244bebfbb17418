package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/appraisal-engine/config"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "appraisal",
	Short: "Weighted appraisal scoring and OKR weightage allocation",
	Long: `Appraisal scores employee assessments against a master configuration:
department, role and common templates weighted into a final percentage and
mapped onto a rating scale. It also allocates OKR weightage budgets across teams.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console|json)")

	v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	v.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(newServeCmd(), newSimulateCmd(), newValidateCmd())
}

// loadRuntime loads configuration and builds the logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
