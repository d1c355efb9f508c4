package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subrover/internal/language"
	"subrover/internal/scan"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "languages",
		Short:       "List recognized language codes and excluded extras folders",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			known := language.Known()
			rows := make([][]string, 0, len(known))
			for _, code := range known {
				rows = append(rows, []string{code, language.ToISO3(code), language.DisplayName(code)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"ISO-1", "ISO-2", "Name"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintln(out, "\nExtras folders excluded when ignore_extra_folders is set:")
			for _, name := range scan.ExtrasFolders() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}
