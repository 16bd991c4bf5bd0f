// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"

	"github.com/jeranaias/rigchat/internal/model"
)

// ErrNotFound is returned when no entry exists for a key.
// It is the same value as model.ErrNotFound so either can be used with errors.Is.
var ErrNotFound = model.ErrNotFound

// PersistenceError reports an I/O or serialization failure.
type PersistenceError struct {
	Op  string // "read", "write", "encode", "decode", "list"
	Key string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op, key string, err error) error {
	return &PersistenceError{Op: op, Key: key, Err: err}
}
