// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains information about a completion model.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// MaxTokens is the context window size
	MaxTokens int `json:"max_tokens"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// DefaultModel is the model used when none is configured.
const DefaultModel = "gpt-3.5-turbo"

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = 0.5

// Temperature bounds accepted by the completion client.
const (
	MinTemperature = 0.1
	MaxTemperature = 1.0
)

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of models the client accepts.
var Models = map[string]ModelInfo{
	"gpt-3.5-turbo": {
		ID:          "gpt-3.5-turbo",
		Name:        "GPT-3.5 Turbo",
		MaxTokens:   16385,
		Description: "Fast and inexpensive general chat",
	},
	"gpt-4": {
		ID:          "gpt-4",
		Name:        "GPT-4",
		MaxTokens:   8192,
		Description: "Strong reasoning, smaller context",
	},
	"gpt-4-turbo-preview": {
		ID:          "gpt-4-turbo-preview",
		Name:        "GPT-4 Turbo Preview",
		MaxTokens:   128000,
		Description: "GPT-4 quality with a long context window",
	},
	"gpt-4-turbo": {
		ID:          "gpt-4-turbo",
		Name:        "GPT-4 Turbo",
		MaxTokens:   128000,
		Description: "GPT-4 quality with a long context window",
	},
	"gpt-4o": {
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		MaxTokens:   128000,
		Description: "Multimodal flagship, fast",
	},
	"gpt-4o-mini": {
		ID:          "gpt-4o-mini",
		Name:        "GPT-4o mini",
		MaxTokens:   128000,
		Description: "Small, cheap and quick",
	},
}

// LookupModel returns the registry entry for id (case-insensitive).
func LookupModel(id string) (ModelInfo, bool) {
	info, ok := Models[strings.ToLower(strings.TrimSpace(id))]
	return info, ok
}

// ModelIDs returns the registered model IDs in sorted order.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for id := range Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidTemperature reports whether t lies within the accepted range.
func ValidTemperature(t float64) bool {
	return t >= MinTemperature && t <= MaxTemperature
}
