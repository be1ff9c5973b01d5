package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"genreclf/internal/evaluation"
	"genreclf/internal/pipeline"
	"genreclf/internal/publish"
)

func newTrainingCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newTrainCommand(ctx),
		newRunCommand(ctx),
		newPublishCommand(ctx),
	}
}

func newTrainCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and evaluate a model without publishing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := runner.Train(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, newReportView(report))
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run report as JSON")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		noPublish  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Train, evaluate, and publish when the model improves",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runner, cleanup, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			publishAfter := !noPublish
			if !cmd.Flags().Changed("no-publish") && !cfg.Publish.Enabled {
				publishAfter = false
			}
			report, err := runner.Run(cmd.Context(), publishAfter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, newReportView(report))
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run report as JSON")
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "Skip the publish gate (default follows publish.enabled)")
	return cmd
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the local artifact if it beats the registry's model",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			outcome, err := runner.Publish(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderOutcome(outcome, shouldColorize(out)))
			return nil
		},
	}
}

type reportView struct {
	RunID      string             `json:"run_id"`
	Records    int                `json:"records"`
	Labels     []string           `json:"labels"`
	Metrics    evaluation.Metrics `json:"metrics"`
	ModelPath  string             `json:"model_path"`
	MetaPath   string             `json:"meta_path"`
	Decision   string             `json:"decision,omitempty"`
	Metric     string             `json:"metric,omitempty"`
	PriorValue *float64           `json:"prior_value,omitempty"`
	DurationMS int64              `json:"duration_ms"`
}

func newReportView(report pipeline.Report) reportView {
	view := reportView{
		RunID:      report.RunID,
		Records:    report.Records,
		Labels:     report.Vocabulary,
		Metrics:    report.Training.Metrics,
		ModelPath:  report.Training.Artifact.ModelPath,
		MetaPath:   report.Training.Artifact.MetaPath,
		DurationMS: report.Duration.Milliseconds(),
	}
	if o := report.Outcome; o != nil {
		view.Decision = string(o.Decision)
		view.Metric = o.Metric
		if o.HasPrior() {
			prior := o.PriorValue
			view.PriorValue = &prior
		}
	}
	return view
}

func renderReport(out io.Writer, report pipeline.Report) {
	m := report.Training.Metrics
	fmt.Fprintf(out, "Run %s: %d records, %d train / %d test, threshold %.2f\n",
		report.RunID, report.Records, m.NTrain, m.NTest, m.Threshold)
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Micro", "Macro"},
		[][]string{
			{"precision", formatScore(m.PrecisionMicro), formatScore(m.PrecisionMacro)},
			{"recall", formatScore(m.RecallMicro), formatScore(m.RecallMacro)},
			{"f1", formatScore(m.F1Micro), formatScore(m.F1Macro)},
		},
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))

	if len(m.PerGenreF1) > 0 {
		names := make([]string, 0, len(m.PerGenreF1))
		for name := range m.PerGenreF1 {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, formatScore(m.PerGenreF1[name])})
		}
		fmt.Fprintln(out, renderTable([]string{"Genre", "F1"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	fmt.Fprintf(out, "Model: %s\n", report.Training.Artifact.ModelPath)
	if report.Outcome != nil {
		fmt.Fprintln(out, renderOutcome(*report.Outcome, shouldColorize(out)))
	}
}

func renderOutcome(o publish.Outcome, colorize bool) string {
	kind := statusOK
	if o.Decision == publish.Skipped {
		kind = statusWarn
	}
	prior := "none"
	switch o.PriorState {
	case publish.PriorFound:
		prior = formatScore(o.PriorValue)
	case publish.PriorUnavailable:
		prior = "unavailable"
	}
	message := fmt.Sprintf("%s %s (prior %s)", o.Metric, formatScore(o.NewValue), prior)
	return renderStatusLine(string(o.Decision), kind, message, colorize)
}
