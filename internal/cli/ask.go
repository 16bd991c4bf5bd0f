// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single prompt command for the rigchat CLI.
//
// Command: ask [prompt]
// Short:   Ask a single question
//
// Examples:
//   rigchat ask "What is the capital of France?"
//   git diff | rigchat ask "Review this change:"
//   rigchat ask --open 1 "And what about Spain?"
//
// The exchange is saved like any chat conversation.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
)

// MaxStdinSize caps piped input appended to the prompt (1MB).
const MaxStdinSize = 1 << 20

type askOptions struct {
	root *rootOptions
	open string
}

func newAskCmd(root *rootOptions) *cobra.Command {
	opts := &askOptions{root: root}
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask a single question",
		Long: `Send one prompt, print the reply and save the exchange.

Piped input is appended to the prompt.

Examples:
  rigchat ask "What is the capital of France?"
  git diff | rigchat ask "Review this change:"
  rigchat ask --open 1 "And what about Spain?"`,
		RunE: opts.run,
	}
	cmd.Flags().StringVarP(&opts.open, "open", "o", "", "continue a saved conversation (number from 'list' or identifier)")
	return cmd
}

func (a *askOptions) run(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(cmd, args)
	if err != nil {
		return err
	}

	app, err := a.root.openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if a.open != "" {
		list, err := app.Session.Conversations()
		if err != nil {
			return err
		}
		id, err := session.Resolve(list, a.open)
		if err != nil {
			return err
		}
		if _, err := app.Session.Open(id); err != nil {
			return err
		}
	}

	printer := newStreamPrinter(cmd.OutOrStdout(), NewRenderer(app.Config.UI))
	reply, err := app.Session.Send(cmd.Context(), prompt, printer.Write)
	if err != nil && !errors.Is(err, context.Canceled) {
		printer.hideCursor()
		return err
	}
	printer.Finish(reply.Content)
	return err
}

// readPrompt joins the arguments and appends piped stdin.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))

	in := cmd.InOrStdin()
	if !isTerminalReader(in) {
		data, err := io.ReadAll(io.LimitReader(in, MaxStdinSize))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if piped := strings.TrimSpace(string(data)); piped != "" {
			if prompt == "" {
				prompt = piped
			} else {
				prompt += "\n\n" + piped
			}
		}
	}

	if prompt == "" {
		return "", fmt.Errorf("%w: no prompt given (pass it as an argument or pipe it in)", model.ErrInvalidInput)
	}
	return prompt, nil
}
