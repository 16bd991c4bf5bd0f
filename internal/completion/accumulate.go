// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"errors"
	"io"
	"strings"
)

// FragmentSource yields reply fragments until io.EOF. *Stream implements it.
type FragmentSource interface {
	Next() (Fragment, error)
}

// Accumulate drains src and returns the concatenated reply. Empty fragments
// are skipped and never end accumulation. onText, when non-nil, sees every
// non-empty fragment as it arrives. The context is checked between pulls;
// on cancellation or failure the partial text is returned in a *StreamError.
func Accumulate(ctx context.Context, src FragmentSource, onText func(string)) (string, error) {
	var sb strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return sb.String(), &StreamError{Partial: sb.String(), Err: err}
		}

		f, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sb.String(), nil
			}
			return sb.String(), &StreamError{Partial: sb.String(), Err: err}
		}
		if f.Text == "" {
			continue
		}

		sb.WriteString(f.Text)
		if onText != nil {
			onText(f.Text)
		}
	}
}
