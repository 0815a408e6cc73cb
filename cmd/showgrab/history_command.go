package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"showgrab/internal/history"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent download runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled || cfg.History.Path == "" {
				return fmt.Errorf("history is disabled in configuration")
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				jobs, err := store.RunJobs(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintf(out, "No jobs recorded for run %s\n", runID)
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					detail := job.OutputPath
					if job.Error != "" {
						detail = job.Error
					}
					rows = append(rows, []string{job.ItemID, job.Status, job.Title, detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Title", "Output / Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				mode := ""
				if run.DryRun {
					mode = "dry-run"
				}
				rows = append(rows, []string{
					run.ID,
					run.Started.Local().Format(time.RFC3339),
					strconv.Itoa(run.Completed),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failed),
					mode,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Completed", "Skipped", "Failed", "Mode"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show the per-job results of one run")
	return cmd
}
