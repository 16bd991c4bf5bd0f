// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved conversations out as documents.
//
// # Key Types
//
//   - Exporter: converts a model.ConversationRecord to bytes
//   - Options: output directory, metadata header, clock
//
// # Supported Formats
//
//   - Markdown: YAML front matter plus one section per turn
//   - JSON: the stored record itself
//   - HTML: standalone page, turns rendered with goldmark
//
// # Usage
//
//	exp, err := export.New("markdown", nil)
//	path, err := export.ExportToFile(record, exp, &export.Options{OutputDir: "."})
package export
