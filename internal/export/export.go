// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a stored conversation into a document.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(rec *model.ConversationRecord) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Supported format names.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatHTML     = "html"
)

// Formats lists the accepted format names.
var Formats = []string{FormatMarkdown, FormatJSON, FormatHTML}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata adds a header with the identifier, turn count and
	// export time.
	IncludeMetadata bool

	// Now stamps the export; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		Now:             time.Now,
	}
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// New returns the exporter for format ("markdown"/"md", "json", "html").
func New(format string, opts *Options) (Exporter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "md":
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatHTML, "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q (available: %s)",
			model.ErrInvalidInput, format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile writes the exported conversation to
// <OutputDir>/<identifier><ext> and returns the path.
func ExportToFile(rec *model.ConversationRecord, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateRecord(rec); err != nil {
		return "", err
	}

	content, err := exporter.Export(rec)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, rec.Identifier+exporter.FileExtension())
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// ExportTo writes the exported conversation to w.
func ExportTo(w io.Writer, rec *model.ConversationRecord, exporter Exporter) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	content, err := exporter.Export(rec)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	_, err = w.Write(content)
	return err
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func validateRecord(rec *model.ConversationRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: conversation is nil", model.ErrInvalidInput)
	}
	if len(rec.Turns) == 0 {
		return fmt.Errorf("%w: conversation has no turns", model.ErrInvalidInput)
	}
	if rec.Identifier == "" {
		return fmt.Errorf("%w: conversation has no identifier", model.ErrInvalidInput)
	}
	return nil
}
