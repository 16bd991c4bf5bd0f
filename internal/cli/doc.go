// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the rigchat command line: the interactive chat REPL
// and the one-shot commands around it.
//
// # Commands
//
//	rigchat [chat]              Interactive chat (default)
//	rigchat ask <prompt>        Single question, reply on stdout
//	rigchat list                Saved conversations, most recent first
//	rigchat show <n|id>         Print a saved conversation
//	rigchat export <n|id>       Write a conversation as markdown, JSON or HTML
//	rigchat key set <value>     Store the API key
//	rigchat key status          Show which API key is in use
//	rigchat config [show|get|set|path|reset]
//	rigchat version
//
// # Key Types
//
//   - App: storage backend, completion client and session for one invocation
//   - Chat: the REPL, driven by a LineReader (liner on a terminal)
//   - Renderer: glamour markdown rendering of replies
//
// # Usage
//
//	func main() {
//	    cli.Execute()
//	}
//
// Output goes through the cobra command's writers so commands can be
// exercised in tests with SetOut/SetErr/SetIn.
package cli
