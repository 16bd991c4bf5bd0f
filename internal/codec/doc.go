// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec maps conversation titles to filesystem-safe identifiers and
// back.
//
// Encode is a pure, lossy function: accents are transliterated to their ASCII
// base letters, everything that is not an ASCII letter or digit is dropped and
// the result is lowercased. Because case and diacritics cannot be recovered,
// Decode is a reverse lookup through the stored record's display title, not an
// inverse of Encode.
//
// # Usage
//
//	id, err := codec.Encode("Café com Açúcar?") // "cafecomacucar"
//
//	c := codec.New(store)
//	title, err := c.Decode(id) // "Café com Açúcar?"
//
// # Cache
//
// A Codec memoizes every successful Decode for its whole lifetime. Entries
// are never evicted; this is fine because a user only has a handful of
// conversations and a title never changes once its identifier exists.
package codec
