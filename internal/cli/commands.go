// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (keepGoing, error) where keepGoing=false means exit.
func (c *Chat) handleSlashCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		c.printHelp()
		return true, nil

	case "/new", "/n":
		c.Session.NewConversation()
		fmt.Fprintln(c.Out, SuccessStyle.Render("[New conversation]"))
		return true, nil

	case "/list", "/l":
		return true, c.listConversations()

	case "/open", "/o":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /open <number|identifier>")
		}
		return true, c.openConversation(args[0])

	case "/model", "/m":
		return true, c.handleModelCommand(args)

	case "/temp", "/t":
		return true, c.handleTempCommand(args)

	case "/key":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /key <value>")
		}
		if err := c.Session.SetAPIKey(args[0]); err != nil {
			return true, err
		}
		fmt.Fprintln(c.Out, SuccessStyle.Render("[API key saved]"))
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

func (c *Chat) listConversations() error {
	list, err := c.Session.Conversations()
	if err != nil {
		return err
	}
	fmt.Fprint(c.Out, FormatConversationList(list, GetTerminalWidth()))
	return nil
}

func (c *Chat) openConversation(ref string) error {
	list, err := c.Session.Conversations()
	if err != nil {
		return err
	}
	id, err := session.Resolve(list, ref)
	if err != nil {
		return err
	}
	turns, err := c.Session.Open(id)
	if err != nil {
		return err
	}

	title, err := c.Session.Codec().Decode(id)
	if err != nil {
		title = id
	}
	fmt.Fprintf(c.Out, "%s %s\n\n", SuccessStyle.Render("[Opened]"), ConversationLabel(title))
	c.printTranscript(turns)
	return nil
}

// handleModelCommand shows or switches the model.
func (c *Chat) handleModelCommand(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(c.Out, "%s %s\n", LabelStyle.Render("Model:"), CommandStyle.Render(c.Session.State().Model))
		fmt.Fprintf(c.Out, "%s %s\n", LabelStyle.Render("Available:"), strings.Join(model.ModelIDs(), ", "))
		return nil
	}
	if err := c.Session.SetModel(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%s Switched to model: %s\n", SuccessStyle.Render("[OK]"), c.Session.State().Model)
	return nil
}

// handleTempCommand shows or sets the temperature.
func (c *Chat) handleTempCommand(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(c.Out, "%s %.2f\n", LabelStyle.Render("Temperature:"), c.Session.State().Temperature)
		return nil
	}
	t, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%w: invalid temperature %q", model.ErrInvalidInput, args[0])
	}
	if err := c.Session.SetTemperature(t); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%s Temperature set to %.2f\n", SuccessStyle.Render("[OK]"), t)
	return nil
}

// printHelp prints available commands.
func (c *Chat) printHelp() {
	fmt.Fprintln(c.Out)
	fmt.Fprintln(c.Out, TitleStyle.Render("Available Commands"))
	fmt.Fprintln(c.Out, DimStyle.Render(strings.Repeat("─", 20)))

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new, /n", "Start a new conversation"},
		{"/list, /l", "List saved conversations"},
		{"/open <n|id>", "Continue a saved conversation"},
		{"/model [name]", "Show or switch model"},
		{"/temp [value]", "Show or set temperature (0.1-1.0)"},
		{"/key <value>", "Store the API key"},
		{"/quit, /q", "Exit chat"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(c.Out, "  %s  %s\n",
			CommandStyle.Render(fmt.Sprintf("%-15s", cmd.cmd)),
			DimStyle.Render(cmd.desc))
	}
	fmt.Fprintln(c.Out)
	fmt.Fprintln(c.Out, DimStyle.Render("Ctrl+C cancels a reply, Ctrl+D exits."))
	fmt.Fprintln(c.Out)
}
