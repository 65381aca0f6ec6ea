package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbook/internal/core"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		mappingPath  string
		saveTemplate string
		skipZeroTime bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a logbook file into the flights database",
		Long: `Parse a logbook export and store its valid flights along with the
aircraft it references. Rows with errors are reported and skipped. When the
database lacks optional columns the import is retried without them.

The run is recorded in the import history.`,
		Example: `  logimport import logbook.csv
  logimport import logbook.csv --sqlite flights.db --skip-zero-time
  logimport import export.csv --mapping club.yaml --save-template "club export"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, closeBackend, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer closeBackend()

			svc := a.service(b)
			id, report, err := a.preview(ctx, svc, args[0], mappingPath)
			if err != nil {
				return err
			}
			defer svc.Close(id)

			if saveTemplate != "" {
				if view, err := svc.Get(id); err == nil && view.Kind == core.KindGeneric {
					if _, err := svc.SaveTemplate(ctx, id, saveTemplate); err != nil {
						return err
					}
					a.logger.Info("mapping template saved", "name", saveTemplate)
				}
			}

			skip := a.cfg.Import.SkipZeroTime
			if cmd.Flags().Changed("skip-zero-time") {
				skip = skipZeroTime
			}

			result, err := svc.Commit(ctx, id, core.CommitOptions{SkipZeroTime: skip})
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printResult(cmd.OutOrStdout(), report, result)
			}

			if result.Failed > 0 {
				return &core.PartialImportFailure{Success: result.Success, Failed: result.Failed}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mappingPath, "mapping", "", "YAML mapping profile for generic files")
	cmd.Flags().StringVar(&saveTemplate, "save-template", "", "save the file's column mappings under this name")
	cmd.Flags().BoolVar(&skipZeroTime, "skip-zero-time", false, "do not import flights with zero total time")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func printResult(w io.Writer, report *core.ParseReport, r *core.ImportResult) {
	fmt.Fprintf(w, "Import results:\n")
	fmt.Fprintf(w, "  State: %s\n", r.State)
	fmt.Fprintf(w, "  Imported: %d\n", r.Success)
	fmt.Fprintf(w, "  Failed: %d\n", r.Failed)
	fmt.Fprintf(w, "  Excluded before import: %d\n", report.ExcludedFlights)
	if r.Attempts > 1 {
		fmt.Fprintf(w, "  Attempts: %d\n", r.Attempts)
	}
	if len(r.DroppedColumns) > 0 {
		fmt.Fprintf(w, "  Dropped columns: %v\n", r.DroppedColumns)
	}
	if len(r.PerRowErrors) > 0 {
		fmt.Fprintln(w, "  Errors:")
		for _, e := range r.PerRowErrors {
			fmt.Fprintf(w, "    - line %d: %s\n", e.Line, e.Message)
		}
	}
}
