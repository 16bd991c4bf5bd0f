// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/model"
)

func TestCredential_UnsetIsEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		key, err := store.LoadCredential()
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func TestCredential_SaveAndReplace(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		require.NoError(t, store.SaveCredential("  sk-first  "))
		key, err := store.LoadCredential()
		require.NoError(t, err)
		assert.Equal(t, "sk-first", key)

		require.NoError(t, store.SaveCredential("sk-second"))
		key, err = store.LoadCredential()
		require.NoError(t, err)
		assert.Equal(t, "sk-second", key)

		// The credential never shows up as a conversation.
		ids, err := store.ListAll()
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestCredential_EmptyRejected(t *testing.T) {
	store := newStore(t, BackendDir)
	assert.ErrorIs(t, store.SaveCredential("   "), model.ErrInvalidInput)
}

func TestCredential_FileIsOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	store := NewConversationStore(NewDirBackend(dir))
	require.NoError(t, store.SaveCredential("sk-secret"))

	info, err := os.Stat(filepath.Join(dir, CategorySettings, "credential.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
