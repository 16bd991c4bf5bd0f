// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package codec

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	unidecode "github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// ENCODE
// =============================================================================

// Encode derives the storage identifier for a display title.
//
// It fails with model.ErrInvalidInput when title is empty. The result may be
// empty when the transliterated title has no ASCII letters or digits (only
// punctuation or symbols); callers must treat that as "nothing to save".
func Encode(title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("%w: title must not be empty", model.ErrInvalidInput)
	}

	ascii := Transliterate(title)

	var b strings.Builder
	b.Grow(len(ascii))
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String(), nil
}

// Transliterate spells s with its closest ASCII letters in any script
// ("Привет" -> "Privet", "你好" -> "Ni Hao "). Input is composed to NFC first
// so canonically equivalent titles transliterate alike.
func Transliterate(s string) string {
	return unidecode.Unidecode(norm.NFC.String(s))
}

// =============================================================================
// DECODE
// =============================================================================

// TitleSource returns the stored display title for an identifier, or an error
// wrapping model.ErrNotFound when no record exists.
type TitleSource interface {
	Title(identifier string) (string, error)
}

// Codec resolves identifiers back to titles, memoizing every lookup.
type Codec struct {
	mu     sync.Mutex
	source TitleSource
	cache  map[string]string
}

// New creates a Codec that reads titles from source.
func New(source TitleSource) *Codec {
	return &Codec{
		source: source,
		cache:  make(map[string]string),
	}
}

// Encode is a convenience wrapper around the package-level Encode.
func (c *Codec) Encode(title string) (string, error) {
	return Encode(title)
}

// Decode returns the display title stored alongside identifier. The first
// successful lookup per identifier reads storage; later ones hit the cache.
func (c *Codec) Decode(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("%w: empty identifier", model.ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if title, ok := c.cache[identifier]; ok {
		return title, nil
	}

	title, err := c.source.Title(identifier)
	if err != nil {
		return "", err
	}
	c.cache[identifier] = title
	return title, nil
}

// Len returns the number of cached titles.
func (c *Codec) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
