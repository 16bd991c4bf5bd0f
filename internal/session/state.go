// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/google/uuid"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
)

// State is the explicit per-session state.
//
// Defaults: Model "gpt-3.5-turbo", Temperature 0.5, no messages, no current
// conversation. APIKey starts empty and is filled from configuration or the
// stored credential.
type State struct {
	// ID correlates log lines of one session.
	ID string

	APIKey                string
	Model                 string
	Temperature           float64
	Messages              []model.Turn
	CurrentConversationID string
}

// NewState builds a State from configuration. A nil cfg yields the defaults.
func NewState(cfg *config.Config) *State {
	s := &State{
		ID:          uuid.NewString(),
		Model:       model.DefaultModel,
		Temperature: model.DefaultTemperature,
		Messages:    []model.Turn{},
	}
	if cfg == nil {
		return s
	}

	if info, ok := model.LookupModel(cfg.Completion.Model); ok {
		s.Model = info.ID
	}
	if model.ValidTemperature(cfg.Completion.Temperature) {
		s.Temperature = cfg.Completion.Temperature
	}
	s.APIKey = cfg.Completion.APIKey
	return s
}

// clone returns a deep copy safe to hand to callers.
func (s *State) clone() State {
	c := *s
	c.Messages = make([]model.Turn, len(s.Messages))
	copy(c.Messages, s.Messages)
	return c
}
