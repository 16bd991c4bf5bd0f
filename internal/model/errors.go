// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "errors"

// Errors shared by the codec and the conversation store.
// Use errors.Is to check for them; callers wrap them with context.
var (
	// ErrInvalidInput is returned for empty or malformed input, e.g. an empty title.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when no stored record matches an identifier.
	ErrNotFound = errors.New("not found")
)
