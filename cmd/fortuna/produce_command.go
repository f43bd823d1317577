package main

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"fortuna/internal/generation"
	"fortuna/internal/ledger"
	"fortuna/internal/logging"
	"fortuna/internal/workflow"
	"fortuna/internal/zodiac"
)

func newProduceCommand(ctx *commandContext) *cobra.Command {
	var signFlag string
	var dateFlag string
	var taskFlag string
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Produce fortune videos",
		Long: "Produce runs the full pipeline for one sign (--sign) or all configured signs (--all): " +
			"script generation, narration, rendering, assembly, and the optional upload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if allFlag == (signFlag != "") {
				return fmt.Errorf("exactly one of --sign or --all is required")
			}

			task, err := parseTask(taskFlag)
			if err != nil {
				return err
			}
			date, err := parseDate(dateFlag)
			if err != nil {
				return err
			}

			var sign zodiac.Sign
			displayName := ""
			if !allFlag {
				found, ok := zodiac.Lookup(signFlag)
				if !ok {
					return fmt.Errorf("unknown sign %q", signFlag)
				}
				sign = found
				displayName = sign.Name
			}

			lock := flock.New(filepath.Join(cfg.Paths.WorkspaceDir, "fortuna.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire workspace lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another production run is active (lock held at %s)", lock.Path())
			}
			defer lock.Unlock() //nolint:errcheck

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pipe, err := buildPipeline(runCtx, cfg, logger, displayName)
			if err != nil {
				return err
			}
			defer pipe.close()

			out := cmd.OutOrStdout()
			if allFlag {
				produced, err := pipe.producer.RunAll(runCtx, date, task)
				printProductions(out, produced)
				return err
			}

			prod, err := pipe.producer.Run(runCtx, sign, date, task)
			if prod != nil {
				printProductions(out, []*ledger.Production{prod})
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&signFlag, "sign", "s", "", "Zodiac sign to produce (e.g. aries)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Produce every configured sign")
	cmd.Flags().StringVar(&dateFlag, "date", "", "Production date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&taskFlag, "task", "t", "daily", "Video task: daily, monthly, yearly, remedy, or auto")
	return cmd
}

func parseTask(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "daily":
		return generation.TaskDaily, nil
	case "monthly":
		return generation.TaskMonthly, nil
	case "yearly":
		return generation.TaskYearly, nil
	case "remedy":
		return generation.TaskRemedy, nil
	case "auto":
		return workflow.TaskAuto, nil
	default:
		return "", fmt.Errorf("unknown task %q (want daily, monthly, yearly, remedy, or auto)", value)
	}
}

func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", trimmed, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: want YYYY-MM-DD", value)
	}
	return date, nil
}

func printProductions(out io.Writer, produced []*ledger.Production) {
	if len(produced) == 0 {
		return
	}
	rows := make([][]string, 0, len(produced))
	for _, p := range produced {
		rows = append(rows, []string{
			p.Sign,
			p.Task,
			fmt.Sprintf("%.1fs", p.DurationSeconds),
			p.UploadState,
			p.OutputPath,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Sign", "Task", "Duration", "Upload", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
}
