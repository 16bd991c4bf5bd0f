// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/completion"
	"github.com/jeranaias/rigchat/internal/completion/completiontest"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/storage"
)

type chatFixture struct {
	chat   *Chat
	server *completiontest.Server
	store  *storage.ConversationStore
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newChatFixture(t *testing.T, handler http.HandlerFunc, apiKey string, opts ...session.Option) *chatFixture {
	t.Helper()
	srv := completiontest.NewServer(t, handler)
	store := storage.NewConversationStore(storage.NewDirBackend(t.TempDir()))
	client := completion.New(completion.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})

	state := session.NewState(nil)
	state.APIKey = apiKey

	f := &chatFixture{
		server: srv,
		store:  store,
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	f.chat = &Chat{
		Session: session.New(state, store, client, opts...),
		Out:     f.out,
		ErrOut:  f.errOut,
		Quiet:   true,
	}
	return f
}

func (f *chatFixture) run(t *testing.T, script string) {
	t.Helper()
	require.NoError(t, f.chat.Run(context.Background(), newPlainReader(strings.NewReader(script))))
}

// =============================================================================
// CONVERSATION FLOW
// =============================================================================

func TestChat_StreamsReplyAndSaves(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("Hi", " there"), "sk-test")

	f.run(t, "Hello world\n")

	assert.Contains(t, f.out.String(), "Hi there")
	assert.Empty(t, f.errOut.String())

	ids, err := f.store.ListAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"helloworld"}, ids)
	assert.Equal(t, "helloworld", f.chat.Session.State().CurrentConversationID)
}

func TestChat_NonStreaming(t *testing.T) {
	f := newChatFixture(t, completiontest.JSON("Whole reply"), "sk-test", session.WithStreaming(false))

	f.run(t, "Hello world\n")

	assert.Contains(t, f.out.String(), "Whole reply")
	assert.False(t, f.server.LastRequest().Body.Stream)
}

func TestChat_SecondPromptSendsWholeTranscript(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("ok"), "sk-test")

	f.run(t, "first question\nsecond question\n")

	reqs := f.server.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Body.Messages, 3)
	assert.Equal(t, "second question", reqs[1].Body.Messages[2].Content)
}

func TestChat_EndsOnExitWords(t *testing.T) {
	for _, script := range []string{"/quit\nnever sent\n", "/q\nnever sent\n", "exit\nnever sent\n", "QUIT\nnever sent\n"} {
		f := newChatFixture(t, completiontest.SSE("x"), "sk-test")
		f.run(t, script)
		assert.Empty(t, f.server.Requests(), script)
	}
}

func TestChat_SkipsBlankLines(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "sk-test")
	f.run(t, "\n   \n")
	assert.Empty(t, f.server.Requests())
}

// =============================================================================
// ERRORS
// =============================================================================

func TestChat_AuthenticationErrorShowsHint(t *testing.T) {
	f := newChatFixture(t, completiontest.Status(http.StatusUnauthorized, "bad key"), "sk-wrong")

	f.run(t, "Hello world\n")

	assert.Contains(t, f.errOut.String(), "[Error]")
	assert.Contains(t, f.errOut.String(), "/key")
	assert.Empty(t, f.chat.Session.State().Messages)
}

func TestChat_MissingKeyNeverCallsAPI(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "")

	f.run(t, "Hello world\n")

	assert.Contains(t, f.errOut.String(), "[Error]")
	assert.Empty(t, f.server.Requests())
}

func TestChat_TransientErrorShowsRetryHint(t *testing.T) {
	f := newChatFixture(t, completiontest.Status(http.StatusTooManyRequests, "slow down"), "sk-test")

	f.run(t, "Hello world\n")

	assert.Contains(t, f.errOut.String(), "retry")
}

func TestChat_Banner(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "")
	f.chat.Quiet = false

	f.run(t, "")

	out := f.out.String()
	assert.Contains(t, out, "gpt-3.5-turbo")
	assert.Contains(t, out, "0.50")
	assert.Contains(t, out, "No API key set")
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func TestSlash_ModelAndTemperature(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "sk-test")

	f.run(t, "/model gpt-4\n/temp 0.9\nHello world\n")

	assert.Empty(t, f.errOut.String())
	st := f.chat.Session.State()
	assert.Equal(t, "gpt-4", st.Model)
	assert.InDelta(t, 0.9, st.Temperature, 1e-9)

	body := f.server.LastRequest().Body
	assert.Equal(t, "gpt-4", body.Model)
	assert.InDelta(t, 0.9, body.Temperature, 1e-9)
}

func TestSlash_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown model", "/model gpt-99"},
		{"temperature too high", "/temp 1.5"},
		{"temperature too low", "/temp 0"},
		{"temperature not a number", "/temp warm"},
		{"open without argument", "/open"},
		{"key without argument", "/key"},
		{"unknown command", "/frobnicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t, completiontest.SSE("x"), "sk-test")
			keepGoing, err := f.chat.handleSlashCommand(tt.input)
			assert.True(t, keepGoing)
			assert.Error(t, err)

			st := f.chat.Session.State()
			assert.Equal(t, model.DefaultModel, st.Model)
			assert.InDelta(t, model.DefaultTemperature, st.Temperature, 1e-9)
		})
	}
}

func TestSlash_ShowCurrentSettings(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "sk-test")

	f.run(t, "/model\n/temp\n")

	out := f.out.String()
	assert.Contains(t, out, "gpt-3.5-turbo")
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, "0.50")
}

func TestSlash_KeyStoresCredential(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "")

	f.run(t, "/key sk-new\nHello world\n")

	stored, err := f.store.LoadCredential()
	require.NoError(t, err)
	assert.Equal(t, "sk-new", stored)
	assert.Equal(t, "Bearer sk-new", f.server.LastRequest().Authorization)
}

func TestSlash_ListOpenAndNew(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("answer"), "sk-test")

	f.run(t, "Hello world\n")
	time.Sleep(20 * time.Millisecond)
	f.run(t, "/new\nSecond topic\n/list\n")

	out := f.out.String()
	assert.Contains(t, out, "1. Second topic")
	assert.Contains(t, out, "2. Hello world")

	f.out.Reset()
	f.run(t, "/open 2\nfollow up\n")
	assert.Contains(t, f.out.String(), "[Opened] Hello world")
	assert.Contains(t, f.out.String(), "you> Hello world")

	body := f.server.LastRequest().Body
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "Hello world", body.Messages[0].Content)
	assert.Equal(t, "answer", body.Messages[1].Content)

	// Continuing the first conversation keeps its identifier.
	assert.Equal(t, "helloworld", f.chat.Session.State().CurrentConversationID)
	turns, err := f.store.LoadByIdentifier("helloworld")
	require.NoError(t, err)
	assert.Len(t, turns, 4)
}

func TestSlash_OpenByIdentifier(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("answer"), "sk-test")
	f.run(t, "Hello world\n/new\n")

	keepGoing, err := f.chat.handleSlashCommand("/open helloworld")
	require.NoError(t, err)
	assert.True(t, keepGoing)
	assert.Equal(t, "helloworld", f.chat.Session.State().CurrentConversationID)

	_, err = f.chat.handleSlashCommand("/open nosuchthing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSlash_Help(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "sk-test")
	keepGoing, err := f.chat.handleSlashCommand("/help")
	require.NoError(t, err)
	assert.True(t, keepGoing)
	for _, cmd := range []string{"/new", "/list", "/open", "/model", "/temp", "/key", "/quit"} {
		assert.Contains(t, f.out.String(), cmd)
	}
}

func TestCancelReply_OnlyWhenInFlight(t *testing.T) {
	f := newChatFixture(t, completiontest.SSE("x"), "sk-test")
	assert.False(t, f.chat.cancelReply())

	cancelled := false
	f.chat.cancel = func() { cancelled = true }
	assert.True(t, f.chat.cancelReply())
	assert.True(t, cancelled)
	assert.False(t, f.chat.cancelReply())
}
