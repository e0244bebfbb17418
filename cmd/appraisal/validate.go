package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/appraisal-engine/factory"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [glob...]",
		Short: "Load and validate configuration documents",
		Long: `Load every matching JSON/YAML document, resolve references and check
every save-time invariant (category weights, scales, frameworks, budgets).
Without arguments the config_glob setting is used.`,
		Example: `  appraisal validate 'configs/**/*.yaml'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = cfg.ConfigGlob
			}
			return runValidate(cmd.OutOrStdout(), logger, args)
		},
	}
}

func runValidate(w io.Writer, logger *zap.Logger, patterns []string) error {
	bundle, err := factory.NewConfigFactory(logger).LoadFiles(patterns...)
	if err != nil {
		return err
	}

	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	fmt.Fprintf(w, "%s %d scales, %d frameworks, %d templates, %d masters, %d employees, %d objective templates, %d allocations\n",
		ok.Render("valid"),
		len(bundle.Scales), len(bundle.Frameworks), len(bundle.Templates.All()),
		len(bundle.Masters), len(bundle.Employees), len(bundle.ObjectiveTemplates), len(bundle.Allocations))
	return nil
}
