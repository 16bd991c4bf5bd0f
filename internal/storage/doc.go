// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation and credential persistence for rigchat.
//
// Records live in a small key-value layer (Backend) split into categories:
// "conversations" holds one ConversationRecord per identifier and "settings"
// holds the stored API credential. Three backends are available:
//
//   - dir: one JSON file per entry, written atomically (default)
//   - bolt: a single bbolt database with one bucket per category
//   - sqlite: a single SQLite database with one row per entry
//
// # Usage
//
//	backend, err := storage.Open(storage.BackendDir, dataDir)
//	store := storage.NewConversationStore(backend)
//
//	ok := store.Save(turns)          // whole-record overwrite
//	turns := store.Load(sessionTurns) // re-derived from content
//	ids, err := store.ListAll()       // most recent first
//
// # Failure policy
//
// Save and Load never return errors: persistence problems are logged and
// reported as false / an empty transcript so a chat session keeps going.
// LoadByIdentifier and ListAll return errors because they serve explicit
// user actions.
package storage
