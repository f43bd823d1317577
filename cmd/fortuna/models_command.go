package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fortuna/internal/generation"
	"fortuna/internal/logging"
	"fortuna/internal/services/openrouter"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show the ranked generation backends",
		Long: "Models queries the backend catalog and prints the free candidates the " +
			"orchestrator would try, in order. Pinned models bypass discovery.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(cfg.Generation.PinnedModels) > 0 {
				rows := make([][]string, 0, len(cfg.Generation.PinnedModels))
				for i, model := range cfg.Generation.PinnedModels {
					rows = append(rows, []string{strconv.Itoa(i + 1), model, "pinned"})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Model", "Source"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			}

			catalog := openrouter.NewClient(openrouter.Config{
				BaseURL:        cfg.Generation.BaseURL,
				Referer:        cfg.Generation.Referer,
				Title:          cfg.Generation.Title,
				TimeoutSeconds: cfg.Generation.TimeoutSeconds,
			})
			candidates := generation.Rank(cmd.Context(), catalog, logging.NewNop())

			rows := make([][]string, 0, len(candidates))
			for i, candidate := range candidates {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					candidate.ID,
					strconv.Itoa(candidate.Score),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Model", "Score"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
}
