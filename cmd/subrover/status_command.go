package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		showFailed bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent fetch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No fetch runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format(time.DateTime),
					string(run.Status),
					strings.Join(run.Languages, ","),
					fmt.Sprintf("%d", run.Total),
					fmt.Sprintf("%d", run.Completed),
					fmt.Sprintf("%d", run.Failed),
					run.Root,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Status", "Langs", "Total", "OK", "Failed", "Root"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))

			if !showFailed {
				return nil
			}
			for _, run := range runs {
				if run.Failed == 0 {
					continue
				}
				failed, err := store.FailedTasks(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nFailures in run %s:\n", shortID(run.ID))
				for _, record := range failed {
					fmt.Fprintf(out, "  %s: %s\n", record.Path, record.Detail)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&showFailed, "failed", false, "List failed tasks per run")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
