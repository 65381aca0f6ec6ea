package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbook/internal/core"
)

func newParseCmd(a *app) *cobra.Command {
	var (
		mappingPath string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a logbook file and print what would be imported",
		Long: `Parse a logbook export without storing anything. Prints the number of
valid, zero-time and excluded flights, total hours, the format breakdown
and every validation issue.

Generic files need every required field mapped. Columns are matched by
name where possible; use --mapping to supply the rest.`,
		Example: `  logimport parse logbook.csv
  logimport parse export.xlsx --mapping club.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.service(nil)
			id, report, err := a.preview(cmd.Context(), svc, args[0], mappingPath)
			if err != nil {
				return err
			}
			defer svc.Close(id)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&mappingPath, "mapping", "", "YAML mapping profile for generic files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

// preview opens path in svc, applies the optional mapping profile and
// parses it. The session id is returned for a later commit.
func (a *app) preview(ctx context.Context, svc *core.Service, path, mappingPath string) (string, *core.ParseReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open logbook: %w", err)
	}
	defer f.Close()

	view, err := svc.Open(ctx, filepath.Base(path), f)
	if err != nil {
		return "", nil, err
	}

	if mappingPath != "" {
		profile, err := loadProfile(mappingPath)
		if err != nil {
			svc.Close(view.ID)
			return "", nil, err
		}
		if view.Kind == core.KindGeneric {
			if _, err := svc.SetMappings(view.ID, mergeMappings(view.Mappings, profile.Mappings)); err != nil {
				svc.Close(view.ID)
				return "", nil, fmt.Errorf("apply mapping profile: %w", err)
			}
		} else {
			a.logger.Warn("mapping profile ignored", "file", path, "kind", view.Kind)
		}
	}

	report, err := svc.Preview(ctx, view.ID)
	if err != nil {
		svc.Close(view.ID)
		var missing *core.MissingFieldsError
		if errors.As(err, &missing) {
			return "", nil, fmt.Errorf("%w; map them with --mapping", err)
		}
		return "", nil, err
	}
	return view.ID, report, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r *core.ParseReport) {
	fmt.Fprintf(w, "Parse results:\n")
	fmt.Fprintf(w, "  Rows: %d\n", r.TotalRows)
	fmt.Fprintf(w, "  Valid flights: %d\n", r.ValidFlights)
	fmt.Fprintf(w, "  Zero-time flights: %d\n", r.ZeroTimeFlights)
	fmt.Fprintf(w, "  Excluded flights: %d\n", r.ExcludedFlights)
	fmt.Fprintf(w, "  Total hours: %s\n", r.TotalHours.StringFixed(1))
	fmt.Fprintf(w, "  Aircraft: %d\n", r.AircraftCount)
	for _, fc := range r.FormatBreakdown {
		fmt.Fprintf(w, "  Format %s: %d\n", fc.Format, fc.Count)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "  Warnings:")
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "    - %s\n", msg)
		}
	}
	if len(r.Issues) > 0 {
		fmt.Fprintln(w, "  Issues:")
		for _, iss := range r.Issues {
			fmt.Fprintf(w, "    - line %d %s [%s] %s\n", iss.Line, iss.Field, iss.Severity, iss.Message)
		}
	}
}
