package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/factory"
	"github.com/warp/appraisal-engine/okr"
)

type simulateOptions struct {
	patterns   []string
	masterID   string
	answers    string
	employeeID string
	department string
	job        string
	objectives string
	okrIDs     []string
	asJSON     bool
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Score an answer set against a master from configuration files",
		Long: `Score an answer set against a master loaded from configuration documents.

Answers are a JSON object keyed by item code; prefix a path with @ to read
them from a file. Templates are resolved from --employee (looked up in the
documents) or from --department/--job.

Key result progress fills items the answers leave out: --objectives takes a
JSON array of objectives (or @file) and --objective-template names objective
templates from the documents. Explicit answers always win.`,
		Example: `  appraisal simulate --master annual-2025 --department sales --job sales-rep \
      --answers '{"teamwork": 4, "delivery": 3, "values": 5}'
  appraisal simulate --master okr-q1 --objective-template objective-grow-revenue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			if len(opts.patterns) == 0 {
				opts.patterns = cfg.ConfigGlob
			}
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), logger, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.patterns, "config", "c", nil, "Configuration document globs (default from config_glob)")
	cmd.Flags().StringVarP(&opts.masterID, "master", "m", "", "Master configuration id")
	cmd.Flags().StringVarP(&opts.answers, "answers", "a", "{}", "Answers JSON object, or @file")
	cmd.Flags().StringVarP(&opts.employeeID, "employee", "e", "", "Employee id defined in the documents")
	cmd.Flags().StringVar(&opts.department, "department", "", "Department id for template resolution")
	cmd.Flags().StringVar(&opts.job, "job", "", "Job id for template resolution")
	cmd.Flags().StringVar(&opts.objectives, "objectives", "", "Objectives JSON array, or @file")
	cmd.Flags().StringSliceVar(&opts.okrIDs, "objective-template", nil, "Objective template ids whose key result progress feeds the answers")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full result JSON")
	cmd.MarkFlagRequired("master")
	return cmd
}

func runSimulate(ctx context.Context, w io.Writer, logger *zap.Logger, opts simulateOptions) error {
	bundle, err := factory.NewConfigFactory(logger).LoadFiles(opts.patterns...)
	if err != nil {
		return err
	}
	master, err := bundle.Master(appraisal.MasterID(opts.masterID))
	if err != nil {
		return err
	}

	payload, err := readAnswers(opts.answers)
	if err != nil {
		return err
	}
	answers, err := appraisal.ParseAnswers(payload)
	if err != nil {
		return err
	}
	answers, err = withObjectives(bundle, answers, opts)
	if err != nil {
		return err
	}

	engine := appraisal.NewEngine(master, appraisal.WithLogger(logger))
	var res *appraisal.Result
	if opts.employeeID != "" {
		sim, err := engine.SimulateAnswers(ctx, appraisal.EmployeeID(opts.employeeID), answers, appraisal.NewStaticDirectory(bundle.Employees...))
		if err != nil {
			return err
		}
		res = sim.Result
	} else {
		var emp *appraisal.Employee
		if opts.department != "" || opts.job != "" {
			emp = &appraisal.Employee{
				DepartmentID: appraisal.DepartmentID(opts.department),
				JobID:        appraisal.JobID(opts.job),
			}
		}
		res = engine.Compute(emp, answers, nil)
	}

	if opts.asJSON {
		data, err := res.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	renderResult(w, master, res)
	return nil
}

func withObjectives(bundle *factory.Bundle, answers appraisal.Answers, opts simulateOptions) (appraisal.Answers, error) {
	var objectives []okr.Objective
	if opts.objectives != "" {
		data, err := readAnswers(opts.objectives)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &objectives); err != nil {
			return nil, &appraisal.InputValidationError{Message: "objectives must be a JSON array", Err: err}
		}
	}
	templates := make([]okr.ObjectiveTemplate, 0, len(opts.okrIDs))
	for _, id := range opts.okrIDs {
		tpl, err := bundle.ObjectiveTemplate(id)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tpl)
	}
	if len(objectives) == 0 && len(templates) == 0 {
		return answers, nil
	}
	return okr.WithProgress(answers, objectives, templates), nil
}

func readAnswers(arg string) ([]byte, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read answers file %s", path)
		}
		return data, nil
	}
	return []byte(arg), nil
}

// =============================================================================
// CONSOLE RENDERING
// =============================================================================

type printStyles struct {
	header lipgloss.Style
	label  lipgloss.Style
	good   lipgloss.Style
	fair   lipgloss.Style
	poor   lipgloss.Style
	dim    lipgloss.Style
	warn   lipgloss.Style
}

func newPrintStyles() printStyles {
	return printStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:  lipgloss.NewStyle().Width(12),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fair:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		poor:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

func (s printStyles) percent(p float64) lipgloss.Style {
	switch {
	case p >= 75:
		return s.good
	case p >= 60:
		return s.fair
	}
	return s.poor
}

func renderResult(w io.Writer, master *appraisal.MasterConfiguration, res *appraisal.Result) {
	styles := newPrintStyles()

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.header.Render(fmt.Sprintf("%s (%s)", master.Name, master.ID)))
	fmt.Fprintln(w, styles.dim.Render(strings.Repeat("─", 48)))

	for _, c := range appraisal.Categories {
		cat := res.Category(c)
		p := cat.Percent.InexactFloat64()
		fmt.Fprintf(w, "%s %s %s\n",
			styles.label.Render(string(c)),
			styles.percent(p).Render(fmt.Sprintf("%6.2f%%", p)),
			styles.dim.Render(fmt.Sprintf("weight %s%%, %d items", res.Weights.Of(c).String(), len(cat.Items))),
		)
	}

	fmt.Fprintln(w, styles.dim.Render(strings.Repeat("─", 48)))
	final := res.FinalPercentage.InexactFloat64()
	fmt.Fprintf(w, "%s %s\n", styles.label.Render("final"), styles.percent(final).Bold(true).Render(fmt.Sprintf("%6.2f%%", final)))
	if res.FinalRawOnScale != nil {
		fmt.Fprintf(w, "%s %s\n", styles.label.Render("on scale"), res.FinalRawOnScale.String())
	}
	fmt.Fprintf(w, "%s %s\n", styles.label.Render("rating"), styles.header.Render(res.RatingLabel))

	for _, warning := range res.Explanation.Warnings {
		fmt.Fprintln(w, styles.warn.Render("! ")+warning)
	}
	fmt.Fprintln(w)
}
