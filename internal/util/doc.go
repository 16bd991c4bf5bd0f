// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rigchat.
//
// # Key Functions
//
//   - AtomicWriteFile: Crash-safe file writing with fsync and rename
//   - TruncateWidth: Display-width aware truncation with ellipsis
//   - PadRight: Display-width aware padding for table columns
//   - CapitalizeFirst: Uppercase the first letter of a label
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	label := util.TruncateWidth(title, 40)
package util
