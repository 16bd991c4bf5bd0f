// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
)

// =============================================================================
// LIST
// =============================================================================

// listEntry is the JSON form of one saved conversation.
type listEntry struct {
	Number     int    `json:"number"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
}

func newListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved conversations, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := root.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.Session.Conversations()
			if err != nil {
				return err
			}

			if asJSON {
				entries := make([]listEntry, 0, len(list))
				for i, c := range list {
					entries = append(entries, listEntry{Number: i + 1, Identifier: c.Identifier, Title: c.Title})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			fmt.Fprint(cmd.OutOrStdout(), FormatConversationList(list, GetTerminalWidth()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// =============================================================================
// SHOW
// =============================================================================

func newShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number|identifier>",
		Short: "Print a saved conversation",
		Long: `Print a saved conversation.

Examples:
  rigchat show 1
  rigchat show whatisthecapitaloffrance`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			turns, err := app.Store.LoadByIdentifier(id)
			if err != nil {
				return err
			}

			title, err := app.Session.Codec().Decode(id)
			if err != nil {
				title = id
			}

			out := cmd.OutOrStdout()
			renderer := NewRenderer(app.Config.UI)
			if !isTerminalWriter(out) {
				renderer = nil
			}
			fmt.Fprintln(out, TitleStyle.Render(ConversationLabel(title)))
			fmt.Fprintln(out)
			for _, t := range turns {
				switch t.Role {
				case model.RoleUser:
					fmt.Fprintf(out, "%s %s\n\n", PromptStyle.Render("you>"), t.Content)
				case model.RoleAssistant:
					fmt.Fprintf(out, "%s\n\n", renderer.Render(t.Content))
				}
			}
			return nil
		},
	}
}
