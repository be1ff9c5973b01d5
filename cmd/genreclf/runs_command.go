package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"genreclf/internal/ledger"
)

type runView struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	DatasetPath string     `json:"dataset_path,omitempty"`
	Records     int        `json:"records"`
	F1Micro     *float64   `json:"f1_micro,omitempty"`
	F1Macro     *float64   `json:"f1_macro,omitempty"`
	Metric      string     `json:"metric,omitempty"`
	MetricValue *float64   `json:"metric_value,omitempty"`
	PriorValue  *float64   `json:"prior_value,omitempty"`
	Decision    string     `json:"decision,omitempty"`
	ErrorKind   string     `json:"error_kind,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
		pruneDays  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if pruneDays > 0 {
				removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d runs older than %d days\n", removed, pruneDays)
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run))
				}
				return writeJSON(cmd, views)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output runs as JSON")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete finished runs older than this many days first")
	return cmd
}

func newRunView(run *ledger.Run) runView {
	return runView{
		ID:          run.ID,
		Command:     run.Command,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		DatasetPath: run.DatasetPath,
		Records:     run.Records,
		F1Micro:     run.F1Micro,
		F1Macro:     run.F1Macro,
		Metric:      run.Metric,
		MetricValue: run.MetricValue,
		PriorValue:  run.PriorValue,
		Decision:    run.Decision,
		ErrorKind:   run.ErrorKind,
		Error:       run.ErrorMessage,
	}
}

func renderRunsTable(runs []*ledger.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		result := run.Decision
		if run.Status == ledger.StatusFailed {
			result = run.ErrorKind
		}
		if result == "" {
			result = "-"
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.Command,
			string(run.Status),
			formatTimestamp(run.StartedAt),
			formatDuration(run.Duration()),
			fmt.Sprint(run.Records),
			formatOptionalScore(run.F1Micro),
			formatOptionalScore(run.PriorValue),
			result,
		})
	}
	return renderTable(
		[]string{"ID", "Command", "Status", "Started", "Took", "Records", "F1 micro", "Prior", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
