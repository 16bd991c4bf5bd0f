// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Reply output for the rigchat CLI.
//
// Replies stream to the terminal as they arrive, followed by a "▌" cursor
// while more text is expected. When markdown rendering is on and the output
// is a terminal, the streamed text is cleared and replaced with the glamour
// rendering once the reply is complete.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/util"
)

// cursorGlyph trails streamed text while the reply is incomplete.
const cursorGlyph = "▌"

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Renderer renders markdown replies for the terminal.
type Renderer struct {
	tr *glamour.TermRenderer
}

// NewRenderer builds a glamour renderer. wordWrap 0 means the terminal width.
// Returns nil (plain output) when rendering is disabled or the renderer
// cannot be built.
func NewRenderer(ui config.UIConfig) *Renderer {
	if !ui.Markdown {
		return nil
	}
	wrap := ui.WordWrap
	if wrap <= 0 {
		wrap = GetTerminalWidth()
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(MarkdownStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable", "error", err)
		return nil
	}
	return &Renderer{tr: tr}
}

// Render returns content rendered as markdown, or content itself on failure.
func (r *Renderer) Render(content string) string {
	if r == nil || r.tr == nil {
		return content
	}
	out, err := r.tr.Render(content)
	if err != nil {
		logger.Debug("markdown render failed", "error", err)
		return content
	}
	return out
}

// =============================================================================
// STREAM PRINTER
// =============================================================================

// streamPrinter writes reply fragments as they arrive.
type streamPrinter struct {
	out      io.Writer
	tty      bool
	renderer *Renderer
	width    int

	text        strings.Builder
	cursorShown bool
}

func newStreamPrinter(out io.Writer, renderer *Renderer) *streamPrinter {
	tty := isTerminalWriter(out)
	return &streamPrinter{
		out:      out,
		tty:      tty,
		renderer: renderer,
		width:    GetTerminalWidth(),
	}
}

// Write prints one fragment.
func (p *streamPrinter) Write(fragment string) {
	p.hideCursor()
	fmt.Fprint(p.out, fragment)
	p.text.WriteString(fragment)
	if p.tty {
		fmt.Fprint(p.out, cursorGlyph)
		p.cursorShown = true
	}
}

func (p *streamPrinter) hideCursor() {
	if p.cursorShown {
		fmt.Fprint(p.out, "\b \b")
		p.cursorShown = false
	}
}

// Finish removes the cursor and, on a terminal with markdown on, swaps the
// raw text for its rendering. Text produced outside streaming (single-shot
// replies) is passed as reply.
func (p *streamPrinter) Finish(reply string) {
	p.hideCursor()
	streamed := p.text.String()

	if p.tty && p.renderer != nil && reply != "" {
		if streamed != "" {
			out := termenv.NewOutput(p.out)
			// Clears the current row plus the rows above it.
			out.ClearLines(lineCount(streamed, p.width) - 1)
			fmt.Fprint(p.out, "\r")
		}
		fmt.Fprint(p.out, p.renderer.Render(reply))
		return
	}

	if streamed == "" {
		fmt.Fprint(p.out, reply)
		streamed = reply
	}
	if !strings.HasSuffix(streamed, "\n") {
		fmt.Fprintln(p.out)
	}
}

// lineCount returns how many terminal rows text occupies at width columns.
func lineCount(text string, width int) int {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		w := util.StringWidth(line)
		if w == 0 {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}
