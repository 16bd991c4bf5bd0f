// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltFileName is the database file used by the bolt backend.
const BoltFileName = "rigchat.bolt"

// modSuffix names the companion bucket holding modification times.
const modSuffix = ".mtime"

// BoltBackend stores entries in a bbolt database. Each category is a bucket;
// modification times live in a companion "<category>.mtime" bucket as
// big-endian unix nanoseconds.
type BoltBackend struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBoltBackend opens (or creates) <dataDir>/rigchat.bolt.
func OpenBoltBackend(dataDir string) (*BoltBackend, error) {
	path := filepath.Join(dataDir, BoltFileName)
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}
	return &BoltBackend{db: db, now: time.Now}, nil
}

// Get reads one entry. The returned slice is a copy owned by the caller.
func (b *BoltBackend) Get(category, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(category))
		if bucket == nil {
			return fmt.Errorf("%s/%s: %w", category, key, ErrNotFound)
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%s/%s: %w", category, key, ErrNotFound)
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Put writes one entry and stamps its modification time in the same transaction.
func (b *BoltBackend) Put(category, key string, data []byte) error {
	stamp := make([]byte, 8)
	binary.BigEndian.PutUint64(stamp, uint64(b.now().UnixNano()))

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(category))
		if err != nil {
			return err
		}
		mod, err := tx.CreateBucketIfNotExists([]byte(category + modSuffix))
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(key), data); err != nil {
			return err
		}
		return mod.Put([]byte(key), stamp)
	})
}

// List returns the category's entries, most recently written first.
func (b *BoltBackend) List(category string) ([]Entry, error) {
	entries := []Entry{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(category))
		if bucket == nil {
			return nil
		}
		mod := tx.Bucket([]byte(category + modSuffix))
		return bucket.ForEach(func(k, _ []byte) error {
			entry := Entry{Key: string(k)}
			if mod != nil {
				if stamp := mod.Get(k); len(stamp) == 8 {
					entry.ModTime = time.Unix(0, int64(binary.BigEndian.Uint64(stamp)))
				}
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortByRecency(entries)
	return entries, nil
}

// Close releases the database file lock.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
