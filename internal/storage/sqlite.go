// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteFileName is the database file used by the sqlite backend.
const SQLiteFileName = "rigchat.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	category   TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	data       BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (category, key)
);
CREATE INDEX IF NOT EXISTS idx_entries_updated ON entries(category, updated_at DESC);
`

// SQLiteBackend stores entries as rows of a single table keyed by
// (category, key). updated_at holds unix nanoseconds.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteBackend opens (or creates) <dataDir>/rigchat.db and applies the schema.
func OpenSQLiteBackend(dataDir string) (*SQLiteBackend, error) {
	path := filepath.Join(dataDir, SQLiteFileName)
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite schema: %w", err)
	}
	return &SQLiteBackend{db: db, now: time.Now}, nil
}

// Get reads one entry.
func (b *SQLiteBackend) Get(category, key string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRow(
		`SELECT data FROM entries WHERE category = ? AND key = ?`,
		category, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", category, key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put inserts or replaces one entry.
func (b *SQLiteBackend) Put(category, key string, data []byte) error {
	_, err := b.db.Exec(
		`INSERT INTO entries (category, key, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(category, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		category, key, data, b.now().UnixNano(),
	)
	return err
}

// List returns the category's entries, most recently written first.
func (b *SQLiteBackend) List(category string) ([]Entry, error) {
	rows, err := b.db.Query(
		`SELECT key, updated_at FROM entries WHERE category = ?`,
		category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			key   string
			nanos int64
		)
		if err := rows.Scan(&key, &nanos); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, ModTime: time.Unix(0, nanos)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortByRecency(entries)
	return entries, nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
