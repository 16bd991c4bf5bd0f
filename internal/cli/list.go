// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/util"
)

const (
	// labelEllipsisAfter is the title length (in runes) beyond which the
	// picker label gets a trailing "...".
	labelEllipsisAfter = 29

	// labelColumnWidth fits a full 30-rune title plus the ellipsis.
	labelColumnWidth = 33
)

// ConversationLabel is the picker label for a decoded title: first letter
// capitalised, "..." appended when the title is longer than 29 runes.
func ConversationLabel(title string) string {
	label := util.CapitalizeFirst(title)
	if util.RuneLen(label) > labelEllipsisAfter {
		label += "..."
	}
	return label
}

// FormatConversationList renders the numbered picker, most recent first.
// The current conversation is marked with "*". width is the available
// terminal width; 0 means DefaultTerminalWidth.
func FormatConversationList(list []session.Summary, width int) string {
	if len(list) == 0 {
		return DimStyle.Render("No saved conversations.") + "\n"
	}
	if width <= 0 {
		width = DefaultTerminalWidth
	}

	numWidth := len(fmt.Sprint(len(list)))
	// marker + space + number + ". "
	prefix := 2 + numWidth + 2
	labelWidth := labelColumnWidth
	if avail := width - prefix; avail < labelWidth {
		labelWidth = avail
	}
	idWidth := width - prefix - labelWidth - 2

	var b strings.Builder
	for i, c := range list {
		marker := " "
		if c.Current {
			marker = "*"
		}
		label := util.PadRight(util.TruncateWidth(ConversationLabel(c.Title), labelWidth), labelWidth)
		if c.Current {
			label = HighlightStyle.Render(label)
		}

		fmt.Fprintf(&b, "%s %*d. %s", marker, numWidth, i+1, label)
		if idWidth >= 8 {
			b.WriteString("  ")
			b.WriteString(DimStyle.Render(util.TruncateWidth(c.Identifier, idWidth)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
