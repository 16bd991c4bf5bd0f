// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
)

// credentialKey is the settings entry holding the API key.
const credentialKey = "credential"

type credentialRecord struct {
	Version int    `json:"version"`
	APIKey  string `json:"api_key"`
}

// SaveCredential stores the API key, replacing any previous one.
func (s *ConversationStore) SaveCredential(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: API key must not be empty", model.ErrInvalidInput)
	}

	data, err := json.MarshalIndent(credentialRecord{Version: model.RecordVersion, APIKey: apiKey}, "", "  ")
	if err != nil {
		return persistErr("encode", credentialKey, err)
	}
	if err := s.backend.Put(CategorySettings, credentialKey, data); err != nil {
		return persistErr("write", credentialKey, err)
	}
	return nil
}

// LoadCredential returns the stored API key, or "" when none was saved.
func (s *ConversationStore) LoadCredential() (string, error) {
	data, err := s.backend.Get(CategorySettings, credentialKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", persistErr("read", credentialKey, err)
	}

	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", persistErr("decode", credentialKey, err)
	}
	if rec.Version != model.RecordVersion {
		return "", persistErr("decode", credentialKey,
			fmt.Errorf("%w: unsupported credential version %d", model.ErrInvalidInput, rec.Version))
	}
	return rec.APIKey, nil
}
