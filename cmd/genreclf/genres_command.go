package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"genreclf/internal/catalog"
	"genreclf/internal/pipeline"
)

func newGenresCommand(ctx *commandContext) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List the genre catalog used for label columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			local, err := pipeline.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !remote {
				rows := make([][]string, 0, local.Len())
				for _, id := range local.IDs() {
					name, _ := local.CanonicalName(id)
					column, _ := local.Column(name)
					rows = append(rows, []string{fmt.Sprint(id), name, fmt.Sprint(column)})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Genre", "Column"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
				return nil
			}

			client, err := catalog.NewClient(cfg)
			if err != nil {
				return err
			}
			diffs, err := catalog.CompareGenres(cmd.Context(), client, local)
			if err != nil {
				return err
			}
			if len(diffs) == 0 {
				fmt.Fprintf(out, "Local catalog matches TMDB (%d genres)\n", local.Len())
				return nil
			}
			rows := make([][]string, 0, len(diffs))
			for _, d := range diffs {
				rows = append(rows, []string{fmt.Sprint(d.ID), dashIfEmpty(d.Local), dashIfEmpty(d.Remote)})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Local", "TMDB"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
			fmt.Fprintf(out, "%d genre(s) differ from TMDB\n", len(diffs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Compare the local catalog with TMDB's genre list")
	return cmd
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
