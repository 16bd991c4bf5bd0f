// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// This package defines the core domain types shared by the codec, the
// conversation store, the completion client and the session layer.
//
// # Key Types
//
//   - Role: Turn role enumeration (system, user, assistant)
//   - Turn: Single immutable message with a role and text content
//   - ConversationRecord: Persisted form of a conversation
//   - ModelInfo: Information about a completion model
//
// # Usage
//
// Derive the display title of a transcript:
//
//	turns := []model.Turn{model.NewUserTurn("Hello world")}
//	title := model.DisplayTitle(turns) // "Hello world"
//
// Look up a model:
//
//	info, ok := model.LookupModel("gpt-4")
package model
