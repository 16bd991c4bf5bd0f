// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/codec"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// HELPERS
// =============================================================================

var backendKinds = []string{BackendDir, BackendBolt, BackendSQLite}

func newStore(t *testing.T, kind string) *ConversationStore {
	t.Helper()
	backend, err := Open(kind, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewConversationStore(backend)
}

func forEachBackend(t *testing.T, fn func(t *testing.T, store *ConversationStore)) {
	for _, kind := range backendKinds {
		t.Run(kind, func(t *testing.T) {
			fn(t, newStore(t, kind))
		})
	}
}

func transcript(first string, replies ...string) []model.Turn {
	turns := []model.Turn{model.NewUserTurn(first)}
	for _, r := range replies {
		turns = append(turns, model.NewAssistantTurn(r))
	}
	return turns
}

// countingTitles counts reads that reach the store.
type countingTitles struct {
	store *ConversationStore
	reads int
}

func (c *countingTitles) Title(identifier string) (string, error) {
	c.reads++
	return c.store.Title(identifier)
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

func TestConversationStore_RoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		turns := transcript("Hello world", "Hi there!")
		require.True(t, store.Save(turns))

		id, err := codec.Encode("Hello world")
		require.NoError(t, err)
		assert.Equal(t, "helloworld", id)

		ids, err := store.ListAll()
		require.NoError(t, err)
		assert.Contains(t, ids, id)

		c := codec.New(store)
		title, err := c.Decode(id)
		require.NoError(t, err)
		assert.Equal(t, "Hello world", title)

		loaded, err := store.LoadByIdentifier(id)
		require.NoError(t, err)
		assert.Equal(t, turns, loaded)
	})
}

func TestConversationStore_TitleIsTruncatedPrefix(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		long := "Ação: explique a diferença entre listas e tuplas em Python"
		require.True(t, store.Save(transcript(long)))

		_, id, err := IdentifierFor(transcript(long))
		require.NoError(t, err)

		title, err := store.Title(id)
		require.NoError(t, err)
		assert.Equal(t, []rune(long)[:model.TitleLength], []rune(title))
	})
}

func TestConversationStore_IdempotentOverwrite(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		first := transcript("Same opening question", "one")
		second := append(transcript("Same opening question", "one"),
			model.NewUserTurn("follow up"), model.NewAssistantTurn("two"))

		require.True(t, store.Save(first))
		require.True(t, store.Save(second))

		ids, err := store.ListAll()
		require.NoError(t, err)
		require.Len(t, ids, 1)

		loaded, err := store.LoadByIdentifier(ids[0])
		require.NoError(t, err)
		assert.Equal(t, second, loaded)
	})
}

func TestConversationStore_EmptyInputGuard(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		assert.False(t, store.Save(nil))
		assert.False(t, store.Save([]model.Turn{}))
		assert.False(t, store.Save([]model.Turn{model.NewAssistantTurn("hi")}))

		ids, err := store.ListAll()
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestConversationStore_DegenerateTitleNotSaved(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		assert.False(t, store.Save(transcript("?!... ¿¡")))

		_, err := store.SaveRecord(transcript("!!!"))
		assert.ErrorIs(t, err, model.ErrInvalidInput)
		assert.Contains(t, err.Error(), "no ASCII letters or digits")

		ids, err := store.ListAll()
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestConversationStore_NonLatinTitlesSaved(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Привет, как дела?", "privetkakdela"},
		{"Γειά σου κόσμε", "geiasoukosme"},
		{"你好世界", "nihaoshijie"},
	}

	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		for _, tc := range tests {
			full := transcript(tc.title, "reply")
			require.True(t, store.Save(full), tc.title)

			loaded, err := store.LoadByIdentifier(tc.want)
			require.NoError(t, err, tc.title)
			assert.Equal(t, full, loaded)

			title, err := store.Title(tc.want)
			require.NoError(t, err)
			assert.Equal(t, tc.title, title)
		}

		ids, err := store.ListAll()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"privetkakdela", "geiasoukosme", "nihaoshijie"}, ids)
	})
}

// captureLogs routes the package logger into a buffer at debug level.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Configure(slog.LevelDebug, "text", &buf)
	t.Cleanup(func() { logger.Configure(slog.LevelWarn, "text", nil) })
	return &buf
}

func TestConversationStore_SaveLogLevels(t *testing.T) {
	t.Run("nothing to save", func(t *testing.T) {
		logs := captureLogs(t)
		store := newStore(t, BackendDir)

		assert.False(t, store.Save(transcript("!!!")))
		assert.Contains(t, logs.String(), "level=DEBUG")
		assert.Contains(t, logs.String(), "conversation not saved")
		assert.NotContains(t, logs.String(), "level=ERROR")
	})

	t.Run("write failure", func(t *testing.T) {
		logs := captureLogs(t)
		root := filepath.Join(t.TempDir(), "blocked")
		require.NoError(t, os.WriteFile(root, []byte("not a directory"), 0600))
		store := NewConversationStore(NewDirBackend(root))

		assert.False(t, store.Save(transcript("Hello world")))
		assert.Contains(t, logs.String(), "level=ERROR")
		assert.Contains(t, logs.String(), "failed to save conversation")
	})
}

func TestConversationStore_LoadFromHint(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		full := transcript("What is a monad?", "A monoid in the category of endofunctors.")
		require.True(t, store.Save(full))

		// Only the first user turn matters for locating the record.
		loaded := store.Load([]model.Turn{
			model.NewSystemTurn("be brief"),
			model.NewUserTurn("What is a monad?"),
		})
		assert.Equal(t, full, loaded)

		assert.Empty(t, store.Load(nil))
		assert.Empty(t, store.Load([]model.Turn{model.NewAssistantTurn("orphan")}))
		assert.Empty(t, store.Load(transcript("never saved")))
	})
}

func TestConversationStore_LoadByIdentifierNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		_, err := store.LoadByIdentifier("missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, model.ErrNotFound)

		_, err = store.LoadByIdentifier("../escape")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// =============================================================================
// LIST
// =============================================================================

func TestConversationStore_RecencyOrdering(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		for _, title := range []string{"A", "B", "C"} {
			require.True(t, store.Save(transcript(title)))
			time.Sleep(20 * time.Millisecond)
		}

		ids, err := store.ListAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, ids)

		// Rewriting A moves it to the front.
		require.True(t, store.Save(transcript("A", "again")))
		ids, err = store.ListAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "b"}, ids)
	})
}

func TestConversationStore_ListEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store *ConversationStore) {
		ids, err := store.ListAll()
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})
}

// =============================================================================
// DECODE CACHE
// =============================================================================

func TestConversationStore_DecodeCachesReads(t *testing.T) {
	store := newStore(t, BackendDir)
	require.True(t, store.Save(transcript("Cache me")))

	src := &countingTitles{store: store}
	c := codec.New(src)

	first, err := c.Decode("cacheme")
	require.NoError(t, err)
	second, err := c.Decode("cacheme")
	require.NoError(t, err)

	assert.Equal(t, "Cache me", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.reads)
}

// =============================================================================
// DIR BACKEND SPECIFICS
// =============================================================================

func TestDirBackend_Layout(t *testing.T) {
	dir := t.TempDir()
	store := NewConversationStore(NewDirBackend(dir))
	require.True(t, store.Save(transcript("Hello world")))

	path := filepath.Join(dir, CategoryConversations, "helloworld.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": 1`)
	assert.Contains(t, string(data), `"display_title": "Hello world"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDirBackend_CorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store := NewConversationStore(NewDirBackend(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, CategoryConversations), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, CategoryConversations, "broken.json"), []byte("{not json"), 0600))

	_, err := store.LoadByIdentifier("broken")
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "decode", perr.Op)

	assert.Empty(t, store.Load(transcript("broken")))
}

func TestDirBackend_UnknownVersionRejected(t *testing.T) {
	dir := t.TempDir()
	store := NewConversationStore(NewDirBackend(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, CategoryConversations), 0700))
	record := `{"version":2,"display_title":"x","identifier":"future","turns":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CategoryConversations, "future.json"), []byte(record), 0600))

	_, err := store.LoadByIdentifier("future")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestDirBackend_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewConversationStore(NewDirBackend(dir))
	require.True(t, store.Save(transcript("kept")))

	convDir := filepath.Join(dir, CategoryConversations)
	require.NoError(t, os.WriteFile(filepath.Join(convDir, "notes.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(convDir, ".tmp-123.json"), []byte("x"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(convDir, "sub.json"), 0700))

	ids, err := store.ListAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, ids)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("etcd", t.TempDir())
	assert.Error(t, err)
}
