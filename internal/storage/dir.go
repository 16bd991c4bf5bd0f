// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/rigchat/internal/util"
)

const entryExt = ".json"

// DirBackend stores each entry as <root>/<category>/<key>.json. Recency is
// the file modification time.
type DirBackend struct {
	root string
}

// NewDirBackend creates a directory backend rooted at root.
func NewDirBackend(root string) *DirBackend {
	return &DirBackend{root: root}
}

func (b *DirBackend) path(category, key string) string {
	return filepath.Join(b.root, category, key+entryExt)
}

// Get reads one entry.
func (b *DirBackend) Get(category, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(category, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", category, key, ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Put writes one entry atomically with owner-only permissions.
func (b *DirBackend) Put(category, key string, data []byte) error {
	return util.AtomicWriteFile(b.path(category, key), data, 0600)
}

// List returns the category's entries, most recently modified first.
func (b *DirBackend) List(category string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(filepath.Join(b.root, category))
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, entryExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		entries = append(entries, Entry{
			Key:     strings.TrimSuffix(name, entryExt),
			ModTime: info.ModTime(),
		})
	}

	sortByRecency(entries)
	return entries, nil
}

// Close is a no-op for the directory backend.
func (b *DirBackend) Close() error {
	return nil
}
