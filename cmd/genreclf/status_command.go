package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"genreclf/internal/config"
	"genreclf/internal/language"
	"genreclf/internal/preflight"
	"genreclf/internal/services/registry"
	"genreclf/internal/training"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment health, the local model, and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			checkCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			printLines(out, renderSectionHeader("Environment", colorize)...)
			for _, result := range preflight.RunAll(checkCtx, cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Registry", statusInfo, cfg.Registry.Backend+" "+registry.Describe(cfg), colorize))
			if lang := cfg.TMDB.OriginalLanguage; lang != "" {
				fmt.Fprintln(out, renderStatusLine("Catalog language", statusInfo, language.DisplayName(lang)+" ("+lang+")", colorize))
			}

			fmt.Fprintln(out)
			printLines(out, renderSectionHeader("Model", colorize)...)
			writeModelStatus(out, cfg, colorize)

			fmt.Fprintln(out)
			printLines(out, renderSectionHeader("Runs", colorize)...)
			store, err := ctx.openLedger(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Ledger", statusWarn, err.Error(), colorize))
				return nil
			}
			defer store.Close()
			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Ledger", statusWarn, err.Error(), colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Ledger", statusInfo,
				fmt.Sprintf("%d total, %d succeeded, %d failed, %d published", summary.Total, summary.Succeeded, summary.Failed, summary.Published),
				colorize))
			if summary.Running > 0 {
				fmt.Fprintln(out, renderStatusLine("In progress", statusWarn, fmt.Sprintf("%d run(s) marked running", summary.Running), colorize))
			}
			latest, err := store.List(cmd.Context(), 1)
			if err == nil && len(latest) == 1 {
				last := latest[0]
				kind := statusOK
				detail := fmt.Sprintf("%s %s at %s", last.Command, last.Status, formatTimestamp(last.StartedAt))
				if last.Decision != "" {
					detail += " (" + last.Decision + ")"
				}
				if last.ErrorMessage != "" {
					kind = statusError
					detail += ": " + last.ErrorMessage
				}
				fmt.Fprintln(out, renderStatusLine("Last run", kind, detail, colorize))
			}
			return nil
		},
	}
}

func writeModelStatus(out io.Writer, cfg *config.Config, colorize bool) {
	info, err := os.Stat(cfg.ModelPath())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Local model", statusWarn, "Not trained", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Local model", statusOK,
		fmt.Sprintf("%s (%d bytes, %s)", cfg.ModelPath(), info.Size(), formatTimestamp(info.ModTime())), colorize))

	meta, err := training.ReadMetadata(cfg.MetaPath())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Metadata", statusWarn, err.Error(), colorize))
		return
	}
	m := meta.Metrics
	fmt.Fprintln(out, renderStatusLine("Metrics", statusInfo,
		fmt.Sprintf("f1_micro %s, f1_macro %s on %d test rows", formatScore(m.F1Micro), formatScore(m.F1Macro), m.NTest), colorize))
	fmt.Fprintln(out, renderStatusLine("Genres", statusInfo, fmt.Sprintf("%d labels", len(meta.GenreNames)), colorize))
}
