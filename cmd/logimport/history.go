package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbook/internal/core"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "List recent imports",
		Example: "  logimport history\n  logimport history --limit 5 --json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeBackend, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend()

			runs, err := a.service(b).History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			printHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", core.DefaultHistoryLimit, "maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as JSON")

	return cmd
}

func printHistory(w io.Writer, runs []core.ImportRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No imports recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tFILE\tKIND\tSTATE\tIMPORTED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			r.FinishedAt.Local().Format("2006-01-02 15:04"), r.FileName, r.Kind, r.State, r.Success, r.Failed)
	}
	_ = tw.Flush()
}
