package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbook/internal/core"
)

func newTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "template standard|bundled",
		Short:     "Write a blank logbook template",
		Long:      `Write a CSV template with the standard logbook columns, or the bundled export layout with its aircraft and flights sections.`,
		Example:   "  logimport template standard > logbook.csv\n  logimport template bundled -o bundled.csv",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{core.TemplateStandard, core.TemplateBundled},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := core.DownloadTemplate(args[0])
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s template to %s\n", name, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")

	return cmd
}
