// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jeranaias/rigchat/internal/codec"
	"github.com/jeranaias/rigchat/internal/completion"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Completer produces assistant replies. *completion.Client implements it.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (model.Turn, error)
	Stream(ctx context.Context, req completion.Request) (*completion.Stream, error)
}

// Store persists conversations and the credential.
// *storage.ConversationStore implements it.
type Store interface {
	codec.TitleSource
	SaveRecord(turns []model.Turn) (string, error)
	Load(hint []model.Turn) []model.Turn
	LoadByIdentifier(identifier string) ([]model.Turn, error)
	ListAll() ([]string, error)
	SaveCredential(apiKey string) error
	LoadCredential() (string, error)
}

// Summary is one entry of the conversation list.
type Summary struct {
	Identifier string
	Title      string
	Current    bool
}

// =============================================================================
// SESSION
// =============================================================================

// Session orchestrates prompts, replies and persistence for one user.
type Session struct {
	mu     sync.Mutex
	state  *State
	store  Store
	client Completer
	codec  *codec.Codec
	stream bool
}

// Option configures a Session.
type Option func(*Session)

// WithStreaming selects streaming (default) or single-shot completions.
func WithStreaming(enabled bool) Option {
	return func(s *Session) {
		s.stream = enabled
	}
}

// New creates a Session. When state has no API key, the stored credential
// is used.
func New(state *State, store Store, client Completer, opts ...Option) *Session {
	if state == nil {
		state = NewState(nil)
	}
	s := &Session{
		state:  state,
		store:  store,
		client: client,
		codec:  codec.New(store),
		stream: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if state.APIKey == "" {
		key, err := store.LoadCredential()
		if err != nil {
			logger.Warn("could not read stored API key", "session", state.ID, "error", err)
		}
		state.APIKey = key
	}
	return s
}

// State returns a snapshot of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Codec returns the session's identifier codec.
func (s *Session) Codec() *codec.Codec {
	return s.codec
}

// =============================================================================
// PROMPTS
// =============================================================================

// Send appends prompt as a user turn, obtains the reply and saves the whole
// transcript. onText sees reply fragments as they arrive (streaming only).
//
// On failure the user turn is withdrawn so the prompt can be retried. When
// the context is cancelled mid-reply, the partial reply is kept and saved
// and the cancellation error is still returned.
func (s *Session) Send(ctx context.Context, prompt string, onText func(string)) (model.Turn, error) {
	if strings.TrimSpace(prompt) == "" {
		return model.Turn{}, fmt.Errorf("%w: empty prompt", model.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.refresh()
	turns = append(turns, model.NewUserTurn(prompt))

	req := completion.Request{
		APIKey:      s.state.APIKey,
		Model:       s.state.Model,
		Temperature: s.state.Temperature,
		Turns:       turns,
	}

	reply, err := s.complete(ctx, req, onText)
	if err != nil {
		var streamErr *completion.StreamError
		interrupted := errors.Is(err, context.Canceled) && errors.As(err, &streamErr) && streamErr.Partial != ""
		if !interrupted {
			return model.Turn{}, err
		}
		reply = model.NewAssistantTurn(streamErr.Partial)
	}

	turns = append(turns, reply)
	s.state.Messages = turns
	s.persist()
	return reply, err
}

// refresh re-reads the current transcript from storage, falling back to the
// in-memory copy when nothing was stored.
func (s *Session) refresh() []model.Turn {
	current := make([]model.Turn, len(s.state.Messages))
	copy(current, s.state.Messages)
	if len(current) == 0 {
		return current
	}
	if stored := s.store.Load(current); len(stored) >= len(current) {
		return stored
	}
	return current
}

func (s *Session) complete(ctx context.Context, req completion.Request, onText func(string)) (model.Turn, error) {
	if !s.stream {
		return s.client.Complete(ctx, req)
	}

	stream, err := s.client.Stream(ctx, req)
	if err != nil {
		return model.Turn{}, err
	}
	defer stream.Close()

	text, err := completion.Accumulate(ctx, stream, onText)
	if err != nil {
		return model.Turn{}, err
	}
	return model.NewAssistantTurn(text), nil
}

// persist saves the transcript; failures are logged and never interrupt the chat.
func (s *Session) persist() {
	id, err := s.store.SaveRecord(s.state.Messages)
	if err != nil {
		logger.Error("failed to save conversation", "session", s.state.ID, "error", err)
		return
	}
	s.state.CurrentConversationID = id
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// NewConversation clears the transcript and the current conversation.
func (s *Session) NewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = []model.Turn{}
	s.state.CurrentConversationID = ""
}

// Open makes the stored conversation identifier current. An empty
// identifier behaves like NewConversation.
func (s *Session) Open(identifier string) ([]model.Turn, error) {
	if identifier == "" {
		s.NewConversation()
		return []model.Turn{}, nil
	}

	turns, err := s.store.LoadByIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = turns
	s.state.CurrentConversationID = identifier

	out := make([]model.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Conversations lists stored conversations, most recent first, with their
// decoded titles. A title that cannot be decoded falls back to the identifier.
func (s *Session) Conversations() ([]Summary, error) {
	ids, err := s.store.ListAll()
	if err != nil {
		return nil, err
	}

	current := s.State().CurrentConversationID
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		title, err := s.codec.Decode(id)
		if err != nil {
			logger.Warn("could not decode conversation title", "identifier", id, "error", err)
			title = id
		}
		out = append(out, Summary{Identifier: id, Title: title, Current: id == current})
	}
	return out, nil
}

// Resolve turns a picker reference into an identifier. ref is either a
// 1-based position in list or an identifier.
func Resolve(list []Summary, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty conversation reference", model.ErrInvalidInput)
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(list) {
			return "", fmt.Errorf("%w: no conversation #%d", model.ErrNotFound, n)
		}
		return list[n-1].Identifier, nil
	}
	for _, c := range list {
		if c.Identifier == ref {
			return ref, nil
		}
	}
	return "", fmt.Errorf("%w: no conversation %q", model.ErrNotFound, ref)
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetAPIKey stores key as the credential and uses it from now on.
func (s *Session) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if err := s.store.SaveCredential(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.APIKey = key
	return nil
}

// SetModel switches to a known model.
func (s *Session) SetModel(name string) error {
	info, ok := model.LookupModel(name)
	if !ok {
		return fmt.Errorf("%w: unknown model %q (available: %s)",
			model.ErrInvalidInput, name, strings.Join(model.ModelIDs(), ", "))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Model = info.ID
	return nil
}

// SetTemperature sets the sampling temperature, which must lie in [0.1, 1.0].
func (s *Session) SetTemperature(t float64) error {
	if !model.ValidTemperature(t) {
		return fmt.Errorf("%w: temperature %.2f outside [%.1f, %.1f]",
			model.ErrInvalidInput, t, model.MinTemperature, model.MaxTemperature)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Temperature = t
	return nil
}
