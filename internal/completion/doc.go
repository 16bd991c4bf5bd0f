// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion talks to an OpenAI-compatible chat completions API.
//
// # Key Types
//
//   - Client: HTTP client with shared connection pools and request pacing
//   - Request: API key, model, temperature and the transcript to send
//   - Stream: pull-based iterator over reply fragments (server-sent events)
//   - SSEReader: low-level Server-Sent Events parser
//
// # Usage
//
//	client := completion.New(completion.Config{BaseURL: completion.DefaultBaseURL})
//	stream, err := client.Stream(ctx, completion.Request{
//	    APIKey:      key,
//	    Model:       "gpt-3.5-turbo",
//	    Temperature: 0.5,
//	    Turns:       turns,
//	})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	reply, err := completion.Accumulate(ctx, stream, func(s string) { fmt.Print(s) })
//
// # Errors
//
// Every failure wraps one of ErrAuthentication, ErrTransient or
// ErrConfiguration. The client never retries on its own; the caller decides.
// API keys are never logged.
package completion
