package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"genreclf/internal/model"
	"genreclf/internal/services"
	"genreclf/internal/training"
)

type predictionView struct {
	Label     string  `json:"label"`
	Score     float64 `json:"score"`
	Predicted bool    `json:"predicted"`
}

func newPredictCommand(ctx *commandContext) *cobra.Command {
	var (
		showAll    bool
		jsonOutput bool
		threshold  float64
	)

	cmd := &cobra.Command{
		Use:   "predict <overview>",
		Short: "Score a plot overview with the local model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			overview := strings.TrimSpace(strings.Join(args, " "))
			if overview == "" {
				return services.Wrap(services.ErrDataFormat, "predict", "read overview", "overview is empty", nil)
			}

			pipe, _, err := model.Load(cfg.ModelPath())
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return services.Wrap(services.ErrNotFound, "predict", "load model", cfg.ModelPath()+" (run genreclf train first)", err)
				}
				return services.Wrap(services.ErrDataFormat, "predict", "load model", cfg.ModelPath(), err)
			}

			cutoff := threshold
			if !cmd.Flags().Changed("threshold") {
				cutoff = modelThreshold(cfg.MetaPath(), training.FromConfig(cfg).EffectiveThreshold())
			}

			ranked, err := pipe.Rank(overview)
			if err != nil {
				return services.Wrap(services.ErrTraining, "predict", "score", "", err)
			}
			views := make([]predictionView, 0, len(ranked))
			for _, ls := range ranked {
				predicted := ls.Score >= cutoff
				if !predicted && !showAll {
					continue
				}
				views = append(views, predictionView{Label: ls.Label, Score: ls.Score, Predicted: predicted})
			}

			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No genre scored above %.2f\n", cutoff)
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				mark := ""
				if v.Predicted {
					mark = "*"
				}
				rows = append(rows, []string{v.Label, formatScore(v.Score), mark})
			}
			fmt.Fprintln(out, renderTable([]string{"Genre", "Score", ""}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "Show every genre, not only those above the threshold")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output scores as JSON")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Score cutoff (defaults to the threshold the model was evaluated with)")
	return cmd
}

// modelThreshold prefers the threshold recorded next to the model.
func modelThreshold(metaPath string, fallback float64) float64 {
	meta, err := training.ReadMetadata(metaPath)
	if err != nil || meta.Metrics.Threshold <= 0 {
		return fallback
	}
	return meta.Metrics.Threshold
}
