// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Categories of stored entries.
const (
	CategoryConversations = "conversations"
	CategorySettings      = "settings"
)

// Backend kinds accepted by Open.
const (
	BackendDir    = "dir"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// Entry describes one stored value.
type Entry struct {
	Key     string
	ModTime time.Time
}

// Backend is a category-partitioned key-value store. Put replaces the whole
// value. Get returns an error wrapping ErrNotFound for a missing key.
type Backend interface {
	Get(category, key string) ([]byte, error)
	Put(category, key string, data []byte) error
	List(category string) ([]Entry, error)
	Close() error
}

// Open creates the backend of the given kind rooted at dataDir.
func Open(kind, dataDir string) (Backend, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch strings.ToLower(kind) {
	case BackendDir, "":
		return NewDirBackend(dataDir), nil
	case BackendBolt:
		return OpenBoltBackend(dataDir)
	case BackendSQLite:
		return OpenSQLiteBackend(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want dir, bolt or sqlite)", kind)
	}
}

// sortByRecency orders entries most recent first, breaking ties by key so
// listings are stable.
func sortByRecency(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Key < entries[j].Key
	})
}
