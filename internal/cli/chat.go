// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat for the rigchat CLI.
//
// Command: chat (default)
// Short:   Start an interactive chat session
//
// Examples:
//   rigchat                           Start chatting with the configured model
//   rigchat chat --model gpt-4        Use a specific model
//   rigchat chat --open 2             Continue the second most recent conversation
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /new, /n            Start a new conversation
//   /list, /l           List saved conversations
//   /open <n|id>        Continue a saved conversation
//   /model [name]       Show or switch model
//   /temp [value]       Show or set temperature
//   /key <value>        Store the API key
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the reply being generated
//   Ctrl+D              Exit chat

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/rigchat/internal/completion"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
)

// historyFileName is the REPL input history inside the data directory.
const historyFileName = "chat_history"

// =============================================================================
// INPUT
// =============================================================================

// LineReader supplies REPL input lines. io.EOF ends the session.
type LineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose history lives in dataDir.
func NewChatCLI(dataDir string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if dataDir == "" {
		dataDir = os.TempDir()
	}
	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dataDir, historyFileName),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		if _, err := c.line.ReadHistory(f); err != nil {
			logger.Debug("could not read chat history", "path", c.historyFile, "error", err)
		}
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		logger.Debug("could not save chat history", "path", c.historyFile, "error", err)
		return
	}
	defer f.Close()
	if _, err := c.line.WriteHistory(f); err != nil {
		logger.Debug("could not save chat history", "path", c.historyFile, "error", err)
	}
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// plainReader reads lines from a non-terminal input (pipes, tests).
type plainReader struct {
	scanner *bufio.Scanner
}

func newPlainReader(r io.Reader) *plainReader {
	return &plainReader{scanner: bufio.NewScanner(r)}
}

func (p *plainReader) ReadInput(string) (string, error) {
	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (p *plainReader) Close() {}

// =============================================================================
// CHAT LOOP
// =============================================================================

// Chat runs the REPL against a session.
type Chat struct {
	Session  *session.Session
	Renderer *Renderer
	Out      io.Writer
	ErrOut   io.Writer
	Quiet    bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Run reads prompts until EOF, Ctrl+C at the prompt or /quit.
func (c *Chat) Run(ctx context.Context, in LineReader) error {
	defer in.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigChan:
				if c.cancelReply() {
					fmt.Fprintln(c.ErrOut, "\n"+WarningStyle.Render("[Cancelled]"))
				}
			case <-done:
				return
			}
		}
	}()

	if !c.Quiet {
		c.printWelcome()
	}

	for {
		input, err := in.ReadInput(PromptStyle.Render("rigchat> "))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				logger.Debug("input closed", "error", err)
			}
			fmt.Fprintln(c.Out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := c.handleSlashCommand(input)
			if err != nil {
				c.printError(err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		if err := c.processMessage(ctx, input); err != nil {
			c.printError(err)
		}
	}
}

// processMessage sends one prompt and prints the reply as it streams.
func (c *Chat) processMessage(ctx context.Context, input string) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	printer := newStreamPrinter(c.Out, c.Renderer)
	reply, err := c.Session.Send(ctx, input, printer.Write)
	if err != nil && !errors.Is(err, context.Canceled) {
		printer.hideCursor()
		if printer.text.Len() > 0 {
			fmt.Fprintln(c.Out)
		}
		return err
	}
	printer.Finish(reply.Content)
	return nil
}

// cancelReply cancels the reply in flight. Reports whether there was one.
func (c *Chat) cancelReply() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func (c *Chat) printWelcome() {
	st := c.Session.State()
	fmt.Fprintln(c.Out, TitleStyle.Render("rigchat"))
	fmt.Fprintln(c.Out, DimStyle.Render(strings.Repeat("─", 30)))
	fmt.Fprintf(c.Out, "%s %s\n", LabelStyle.Render("Model:"), ValueStyle.Render(st.Model))
	fmt.Fprintf(c.Out, "%s %s\n", LabelStyle.Render("Temperature:"), ValueStyle.Render(fmt.Sprintf("%.2f", st.Temperature)))
	if st.CurrentConversationID != "" {
		title, err := c.Session.Codec().Decode(st.CurrentConversationID)
		if err != nil {
			title = st.CurrentConversationID
		}
		fmt.Fprintf(c.Out, "%s %s\n", LabelStyle.Render("Conversation:"), ValueStyle.Render(ConversationLabel(title)))
	}
	if st.APIKey == "" {
		fmt.Fprintln(c.Out, WarningStyle.Render("No API key set. Use /key <value> or set RIGCHAT_API_KEY."))
	}
	fmt.Fprintln(c.Out)
	fmt.Fprintln(c.Out, DimStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(c.Out)
}

// printTranscript shows an opened conversation.
func (c *Chat) printTranscript(turns []model.Turn) {
	for _, t := range turns {
		switch t.Role {
		case model.RoleUser:
			fmt.Fprintf(c.Out, "%s %s\n", PromptStyle.Render("you>"), t.Content)
		case model.RoleAssistant:
			fmt.Fprintln(c.Out, c.Renderer.Render(t.Content))
		}
	}
}

// printError prints err with a hint for the error classes users can fix.
func (c *Chat) printError(err error) {
	fmt.Fprintf(c.ErrOut, "%s %v\n", ErrorStyle.Render("[Error]"), err)
	switch {
	case errors.Is(err, completion.ErrAuthentication):
		fmt.Fprintln(c.ErrOut, DimStyle.Render("Check your API key with /key <value>."))
	case errors.Is(err, completion.ErrTransient):
		fmt.Fprintln(c.ErrOut, DimStyle.Render("The service may be busy. Send the prompt again to retry."))
	case errors.Is(err, completion.ErrConfiguration):
		fmt.Fprintln(c.ErrOut, DimStyle.Render("Check the model with /model and the temperature with /temp."))
	}
}
