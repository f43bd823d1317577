package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fortuna/internal/ledger"
	"fortuna/internal/zodiac"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var signFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent productions from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := ledger.Open(cfg.Paths.LedgerPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var rows []ledger.Production
			if signFlag != "" {
				sign, ok := zodiac.Lookup(signFlag)
				if !ok {
					return fmt.Errorf("unknown sign %q", signFlag)
				}
				rows, err = store.BySign(cmd.Context(), sign.Key, limitFlag)
			} else {
				rows, err = store.Recent(cmd.Context(), limitFlag)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, line := range renderHeading(out, "Production history") {
				fmt.Fprintln(out, line)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No productions recorded yet")
				return nil
			}

			tableRows := make([][]string, 0, len(rows))
			for _, p := range rows {
				publish := p.PublishAt
				if publish == "" {
					publish = "-"
				}
				tableRows = append(tableRows, []string{
					p.CreatedAt.Local().Format("2006-01-02 15:04"),
					p.Sign,
					p.Task,
					fmt.Sprintf("%.1fs", p.DurationSeconds),
					p.UploadState,
					publish,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Created", "Sign", "Task", "Duration", "Upload", "Publish At"},
				tableRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&signFlag, "sign", "s", "", "Filter by zodiac sign")
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum rows to show")
	return cmd
}
