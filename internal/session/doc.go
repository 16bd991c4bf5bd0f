// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates one chat session.
//
// A Session ties together the explicit session State (API key, model,
// temperature, transcript, current conversation), the conversation store,
// the identifier codec and the completion client. Front ends (the REPL, the
// one-shot ask command) call into it and never touch storage directly.
//
// # Key Types
//
//   - State: the mutable per-session values, with documented defaults
//   - Session: send prompts, switch conversations, change settings
//   - Summary: one entry of the conversation picker
//
// # Usage
//
//	state := session.NewState(cfg)
//	sess := session.New(state, store, client)
//	reply, err := sess.Send(ctx, "Hello", func(s string) { fmt.Print(s) })
package session
