// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/spf13/cobra"
)

type chatOptions struct {
	root  *rootOptions
	open  string
	quiet bool
}

func (c *chatOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.open, "open", "o", "", "continue a saved conversation (number from 'list' or identifier)")
	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "skip the welcome banner")
}

func newChatCmd(root *rootOptions) *cobra.Command {
	opts := &chatOptions{root: root}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session. Every exchange is saved; the
conversation is named after its first question.

Examples:
  rigchat chat
  rigchat chat --model gpt-4
  rigchat chat --open 2`,
		Args: cobra.NoArgs,
		RunE: opts.run,
	}
	opts.bindFlags(cmd)
	return cmd
}

func (c *chatOptions) run(cmd *cobra.Command, _ []string) error {
	app, err := c.root.openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	chat := &Chat{
		Session:  app.Session,
		Renderer: NewRenderer(app.Config.UI),
		Out:      cmd.OutOrStdout(),
		ErrOut:   cmd.ErrOrStderr(),
		Quiet:    c.quiet,
	}

	if c.open != "" {
		if err := chat.openConversation(c.open); err != nil {
			return err
		}
	}

	return chat.Run(cmd.Context(), newLineReader(cmd, app.DataDir))
}

// newLineReader uses line editing with history on a terminal and plain line
// reads otherwise.
func newLineReader(cmd *cobra.Command, dataDir string) LineReader {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin && isTerminalReader(f) {
		return NewChatCLI(dataDir)
	}
	return newPlainReader(in)
}
