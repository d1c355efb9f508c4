package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"subrover/internal/deps"
	"subrover/internal/fetch"
	"subrover/internal/history"
	"subrover/internal/progress"
	"subrover/internal/subliminal"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		overwrite bool
		workers   int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [root]",
		Short: "Download missing subtitles for every video under the library root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner, cfg, err := ctx.newScanner(overwrite)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			root, err := resolveRoot(cfg, args)
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			result, err := scanner.Scan(runCtx, root)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(result.Missing) == 0 {
				fmt.Fprintf(out, "Nothing to do: all %d videos already have subtitles\n", result.VideosSeen)
				return nil
			}
			if dryRun {
				for _, video := range result.Missing {
					fmt.Fprintln(out, video.Path)
				}
				fmt.Fprintf(out, "%d videos would be processed\n", len(result.Missing))
				return nil
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			if err := deps.MissingRequired(statuses); err != nil {
				return err
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			concurrency := cfg.Downloads.Concurrency
			if workers > 0 {
				concurrency = workers
			}

			forceOverwrite := overwrite || cfg.Subtitles.OverwriteExisting
			client := subliminal.New(
				subliminal.WithBinary(cfg.SubliminalBinary()),
				subliminal.WithArgs(cfg.Tools.SubliminalArgs),
				subliminal.WithCacheDir(cfg.Paths.CacheDir),
				subliminal.WithForce(forceOverwrite),
			)

			interactive := isatty.IsTerminal(os.Stdout.Fd())
			scheduler := fetch.New(client, fetch.Options{
				Concurrency:   concurrency,
				RetryAttempts: cfg.Downloads.RetryAttempts,
				RetryInterval: time.Duration(cfg.Downloads.RetryInterval) * time.Second,
				TaskTimeout:   time.Duration(cfg.Downloads.TaskTimeout) * time.Second,
				LockPath:      filepath.Join(cfg.Paths.StateDir, "run.lock"),
				History:       store,
				Logger:        logger,
				OnUpdate: func(task *fetch.Task, snapshot progress.Snapshot) {
					if !interactive {
						return
					}
					switch task.State {
					case fetch.StateSucceeded:
						fmt.Fprintf(out, "[%3.0f%%] done   %s\n", snapshot.Percent(), task.Video.Path)
					case fetch.StateFailed:
						fmt.Fprintf(out, "[%3.0f%%] failed %s: %s\n", snapshot.Percent(), task.Video.Path, task.Detail)
					}
				},
			})

			summary, err := scheduler.Run(runCtx, result)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Run %s %s: %d succeeded, %d failed of %d\n",
				summary.RunID, summary.Status,
				summary.Snapshot.Completed, summary.Snapshot.Failed, summary.Snapshot.Total)
			if summary.Status == history.RunCancelled {
				return fmt.Errorf("run cancelled")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Re-download subtitles even when present")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override the configured download concurrency")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the videos that would be processed and exit")
	return cmd
}
