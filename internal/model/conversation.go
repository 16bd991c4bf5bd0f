// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
)

// TitleLength is the number of characters of the first user turn that make
// up a conversation's display title.
const TitleLength = 30

// RecordVersion is the schema version written into every ConversationRecord.
const RecordVersion = 1

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// FirstUserTurn returns the first turn with the user role.
func FirstUserTurn(turns []Turn) (Turn, bool) {
	for _, t := range turns {
		if t.IsUser() {
			return t, true
		}
	}
	return Turn{}, false
}

// HasUserTurn reports whether turns contains at least one user turn.
func HasUserTurn(turns []Turn) bool {
	_, ok := FirstUserTurn(turns)
	return ok
}

// DisplayTitle returns the first TitleLength characters of the first user
// turn's content, or "" when the transcript has no user turn.
// Characters are counted as runes, never bytes.
func DisplayTitle(turns []Turn) string {
	first, ok := FirstUserTurn(turns)
	if !ok {
		return ""
	}
	runes := []rune(first.Content)
	if len(runes) > TitleLength {
		runes = runes[:TitleLength]
	}
	return string(runes)
}

// =============================================================================
// PERSISTED RECORD
// =============================================================================

// ConversationRecord is the persisted form of a conversation. A record is
// always written whole; there is no incremental append.
type ConversationRecord struct {
	Version      int    `json:"version"`
	DisplayTitle string `json:"display_title"`
	Identifier   string `json:"identifier"`
	Turns        []Turn `json:"turns"`
}

// NewConversationRecord builds a record at the current schema version.
func NewConversationRecord(title, identifier string, turns []Turn) *ConversationRecord {
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return &ConversationRecord{
		Version:      RecordVersion,
		DisplayTitle: title,
		Identifier:   identifier,
		Turns:        copied,
	}
}

// Validate checks the schema version and roles of a decoded record.
func (r *ConversationRecord) Validate() error {
	if r.Version != RecordVersion {
		return fmt.Errorf("%w: unsupported record version %d", ErrInvalidInput, r.Version)
	}
	for i, t := range r.Turns {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: turn %d has unknown role %q", ErrInvalidInput, i, t.Role)
		}
	}
	return nil
}
