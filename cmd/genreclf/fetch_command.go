package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"genreclf/internal/catalog"
	"genreclf/internal/pipeline"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		output string
		mode   string
		pages  int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a movie catalog snapshot from TMDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := catalog.NewClient(cfg)
			if err != nil {
				return err
			}
			genreCatalog, err := pipeline.LoadCatalog(cfg)
			if err != nil {
				return err
			}

			opts := catalog.OptionsFromConfig(cfg)
			if m := strings.TrimSpace(mode); m != "" {
				opts.Mode = strings.ToLower(m)
			}
			if pages > 0 {
				opts.Pages = pages
				opts.MaxPages = pages
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = cfg.Paths.DataFile
			}

			fetcher := catalog.NewFetcher(client, genreCatalog, opts, ctx.loggerValue())
			stats, err := fetcher.FetchToFile(cmd.Context(), target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d movies to %s\n", stats.Kept, target)
			fmt.Fprintln(out, renderTable(
				[]string{"Requests", "Fetched", "Duplicates", "Filtered", "Kept", "Elapsed"},
				[][]string{{
					fmt.Sprint(stats.Requests),
					fmt.Sprint(stats.Fetched),
					fmt.Sprint(stats.Duplicates),
					fmt.Sprint(stats.Filtered),
					fmt.Sprint(stats.Kept),
					formatDuration(stats.Duration),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the dataset here instead of paths.data_file")
	cmd.Flags().StringVar(&mode, "mode", "", "Fetch mode: categories or genres (default from tmdb.mode)")
	cmd.Flags().IntVar(&pages, "pages", 0, "Pages per category or genre (overrides config)")
	return cmd
}
