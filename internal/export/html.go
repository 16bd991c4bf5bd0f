// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page. Turn content
// is rendered as markdown; raw HTML inside turns is dropped.
type HTMLExporter struct {
	options *Options
	md      goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options: opts,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

type htmlTurn struct {
	Role  string
	Label string
	Body  template.HTML
}

type htmlPage struct {
	Title      string
	Identifier string
	Exported   string
	Metadata   bool
	Turns      []htmlTurn
}

// Export converts a conversation to HTML.
func (e *HTMLExporter) Export(rec *model.ConversationRecord) ([]byte, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}

	page := htmlPage{
		Title:      rec.DisplayTitle,
		Identifier: rec.Identifier,
		Exported:   e.options.now().Format(time.RFC3339),
		Metadata:   e.options.IncludeMetadata,
		Turns:      make([]htmlTurn, 0, len(rec.Turns)),
	}
	for _, t := range rec.Turns {
		var body bytes.Buffer
		if err := e.md.Convert([]byte(t.Content), &body); err != nil {
			return nil, fmt.Errorf("render turn: %w", err)
		}
		page.Turns = append(page.Turns, htmlTurn{
			Role:  string(t.Role),
			Label: t.Role.DisplayName(),
			// goldmark escapes text and omits raw HTML by default.
			Body: template.HTML(body.String()),
		})
	}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, page); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="generator" content="rigchat">
<title>{{.Title}}</title>
<style>
:root { --bg: #ffffff; --fg: #1f2328; --muted: #656d76; --user: #ddf4ff; --assistant: #f6f8fa; --border: #d0d7de; }
@media (prefers-color-scheme: dark) {
  :root { --bg: #0d1117; --fg: #e6edf3; --muted: #8d96a0; --user: #0c2d6b; --assistant: #161b22; --border: #30363d; }
}
body { background: var(--bg); color: var(--fg); font: 16px/1.5 -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
header { border-bottom: 1px solid var(--border); margin-bottom: 1.5rem; }
.meta { color: var(--muted); font-size: 0.875rem; }
.turn { border: 1px solid var(--border); border-radius: 8px; padding: 0.75rem 1rem; margin-bottom: 1rem; }
.turn.user { background: var(--user); }
.turn.assistant { background: var(--assistant); }
.role { font-weight: 600; font-size: 0.875rem; color: var(--muted); }
pre { overflow-x: auto; padding: 0.75rem; border-radius: 6px; background: var(--bg); border: 1px solid var(--border); }
code { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.875em; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
{{- if .Metadata}}
<p class="meta">{{.Identifier}} &middot; {{len .Turns}} turns &middot; exported {{.Exported}}</p>
{{- end}}
</header>
{{- range .Turns}}
<section class="turn {{.Role}}">
<div class="role">{{.Label}}</div>
{{.Body}}
</section>
{{- end}}
</body>
</html>
`))
