// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKeyCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <value>",
		Short: "Store the API key in the data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Session.SetAPIKey(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("[API key saved]"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the API key in use comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := root.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			stored, err := app.Store.LoadCredential()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case app.Config.Completion.APIKey != "":
				fmt.Fprintf(out, "%s %s (from configuration or environment)\n",
					LabelStyle.Render("API key:"), maskAPIKey(app.Config.Completion.APIKey))
			case stored != "":
				fmt.Fprintf(out, "%s %s (stored)\n", LabelStyle.Render("API key:"), maskAPIKey(stored))
			default:
				fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("API key:"), WarningStyle.Render("not set"))
			}
			return nil
		},
	})
	return cmd
}
