// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/session"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		format    string
		outputDir string
		toStdout  bool
	)
	cmd := &cobra.Command{
		Use:   "export <number|identifier>",
		Short: "Export a saved conversation to markdown, JSON or HTML",
		Long: `Export a saved conversation. The file is named after the conversation
identifier, e.g. whatisthecapitaloffrance.md.

Examples:
  rigchat export 1
  rigchat export 1 --format html --output ~/Documents
  rigchat export whatisthecapitaloffrance --format json --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.New(format, nil)
			if err != nil {
				return err
			}

			app, err := root.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.Session.Conversations()
			if err != nil {
				return err
			}
			id, err := session.Resolve(list, args[0])
			if err != nil {
				return err
			}
			rec, err := app.Store.Record(id)
			if err != nil {
				return err
			}

			if toStdout {
				return export.ExportTo(cmd.OutOrStdout(), rec, exporter)
			}
			path, err := export.ExportToFile(rec, exporter, &export.Options{
				OutputDir:       outputDir,
				IncludeMetadata: true,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatMarkdown, "export format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVar(&outputDir, "output", ".", "directory to write the export to")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write to stdout instead of a file")
	return cmd
}
