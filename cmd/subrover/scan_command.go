package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"subrover/internal/classify"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "List videos missing subtitles without downloading anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner, cfg, err := ctx.newScanner(overwrite)
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
				fmt.Fprintf(out, "All %d videos under %s have subtitles for: %s\n",
					result.VideosSeen, result.Root, strings.Join(cfg.Subtitles.Languages, ", "))
				return nil
			}

			rows := make([][]string, 0, len(result.Missing))
			for _, video := range result.Missing {
				rel, relErr := filepath.Rel(result.Root, video.Path)
				if relErr != nil {
					rel = video.Path
				}
				rows = append(rows, []string{rel, strings.Join(video.Missing, ", "), presentSummary(video.Present)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Video", "Missing", "Present"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d of %d videos are missing subtitles (%d dirs skipped, %d extras folders excluded)\n",
				len(result.Missing), result.VideosSeen, result.DirsSkipped, result.ExtrasSkipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Include videos that already have subtitles")
	return cmd
}

func presentSummary(present map[string]classify.Presence) string {
	if len(present) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(present))
	for lang, presence := range present {
		parts = append(parts, fmt.Sprintf("%s (%s)", lang, presence))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
