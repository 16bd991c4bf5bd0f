// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/rigchat/internal/codec"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore persists whole conversation transcripts keyed by the
// identifier derived from their display title.
type ConversationStore struct {
	backend Backend
}

// NewConversationStore creates a store over backend.
func NewConversationStore(backend Backend) *ConversationStore {
	return &ConversationStore{backend: backend}
}

// IdentifierFor derives the display title and identifier of a transcript.
// It fails with model.ErrInvalidInput when there is no user turn or when the
// title encodes to an empty identifier.
func IdentifierFor(turns []model.Turn) (title, identifier string, err error) {
	if !model.HasUserTurn(turns) {
		return "", "", fmt.Errorf("%w: transcript has no user turn", model.ErrInvalidInput)
	}
	title = model.DisplayTitle(turns)
	identifier, err = codec.Encode(title)
	if err != nil {
		return "", "", err
	}
	if identifier == "" {
		return "", "", fmt.Errorf("%w: title %q has no ASCII letters or digits", model.ErrInvalidInput, title)
	}
	return title, identifier, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save writes the whole transcript, replacing any previous record with the
// same identifier. It returns false when there is nothing to save or when the
// write failed; write failures are logged as errors.
func (s *ConversationStore) Save(turns []model.Turn) bool {
	if len(turns) == 0 || !model.HasUserTurn(turns) {
		return false
	}
	if _, err := s.SaveRecord(turns); err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			logger.Debug("conversation not saved", "reason", err)
		} else {
			logger.Error("failed to save conversation", "error", err)
		}
		return false
	}
	return true
}

// SaveRecord is Save with the identifier and the error exposed.
func (s *ConversationStore) SaveRecord(turns []model.Turn) (string, error) {
	title, identifier, err := IdentifierFor(turns)
	if err != nil {
		return "", err
	}

	record := model.NewConversationRecord(title, identifier, turns)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", persistErr("encode", identifier, err)
	}

	if err := s.backend.Put(CategoryConversations, identifier, data); err != nil {
		return "", persistErr("write", identifier, err)
	}
	logger.Debug("conversation saved", "identifier", identifier, "turns", len(turns))
	return identifier, nil
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load returns the stored transcript for the conversation hint belongs to.
// The identifier is re-derived from hint's first user turn. It returns an
// empty slice when hint is empty, has no user turn, or no record exists.
func (s *ConversationStore) Load(hint []model.Turn) []model.Turn {
	if len(hint) == 0 {
		return []model.Turn{}
	}
	_, identifier, err := IdentifierFor(hint)
	if err != nil {
		return []model.Turn{}
	}

	turns, err := s.LoadByIdentifier(identifier)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Error("failed to load conversation", "identifier", identifier, "error", err)
		}
		return []model.Turn{}
	}
	return turns
}

// LoadByIdentifier returns the stored transcript for identifier.
func (s *ConversationStore) LoadByIdentifier(identifier string) ([]model.Turn, error) {
	record, err := s.Record(identifier)
	if err != nil {
		return nil, err
	}
	if record.Turns == nil {
		return []model.Turn{}, nil
	}
	return record.Turns, nil
}

// Record reads and validates the full record for identifier.
func (s *ConversationStore) Record(identifier string) (*model.ConversationRecord, error) {
	if !validIdentifier(identifier) {
		return nil, fmt.Errorf("conversation %q: %w", identifier, ErrNotFound)
	}

	data, err := s.backend.Get(CategoryConversations, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("conversation %q: %w", identifier, ErrNotFound)
		}
		return nil, persistErr("read", identifier, err)
	}

	var record model.ConversationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, persistErr("decode", identifier, err)
	}
	if err := record.Validate(); err != nil {
		return nil, persistErr("decode", identifier, err)
	}
	return &record, nil
}

// Title returns the stored display title for identifier. It satisfies
// codec.TitleSource.
func (s *ConversationStore) Title(identifier string) (string, error) {
	record, err := s.Record(identifier)
	if err != nil {
		return "", err
	}
	return record.DisplayTitle, nil
}

var _ codec.TitleSource = (*ConversationStore)(nil)

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// ListAll returns every stored identifier, most recently written first.
func (s *ConversationStore) ListAll() ([]string, error) {
	entries, err := s.backend.List(CategoryConversations)
	if err != nil {
		return nil, persistErr("list", "", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if validIdentifier(e.Key) {
			ids = append(ids, e.Key)
		}
	}
	return ids, nil
}

// validIdentifier reports whether id could have been produced by codec.Encode.
// It also keeps path separators out of backend keys.
func validIdentifier(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
