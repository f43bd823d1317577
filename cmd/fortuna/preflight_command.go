package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fortuna/internal/deps"
	"fortuna/internal/generation"
	"fortuna/internal/services/openrouter"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var skipAPI bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Verify external dependencies before a production run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, line := range renderHeading(out, "External binaries") {
				fmt.Fprintln(out, line)
			}
			binRows := make([][]string, 0, len(statuses))
			failed := false
			for _, status := range statuses {
				mark := "ok"
				if !status.Available {
					mark = "missing"
					if !status.Optional {
						failed = true
					}
				}
				binRows = append(binRows, []string{status.Name, status.Command, mark, status.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Command", "Status", "Detail"},
				binRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			var catalog generation.CatalogProvider
			if !skipAPI {
				catalog = openrouter.NewClient(openrouter.Config{
					BaseURL:        cfg.Generation.BaseURL,
					Referer:        cfg.Generation.Referer,
					Title:          cfg.Generation.Title,
					TimeoutSeconds: cfg.Generation.TimeoutSeconds,
				})
			}
			results := deps.RunAll(cmd.Context(), cfg, catalog)

			for _, line := range renderHeading(out, "Environment checks") {
				fmt.Fprintln(out, line)
			}
			envRows := make([][]string, 0, len(results))
			for _, result := range results {
				mark := "ok"
				if !result.Passed {
					mark = "failed"
					failed = true
				}
				envRows = append(envRows, []string{result.Name, mark, result.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				envRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if failed {
				return errors.New("preflight failed")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipAPI, "skip-api", false, "Skip the generation API reachability check")
	return cmd
}
