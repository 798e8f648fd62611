// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import "fmt"

// Model identifiers offered for conversation turns and for title generation.
const (
	ModelGPT35Turbo = "gpt-3.5-turbo"
	ModelGPT4o      = "gpt-4o"
	ModelGPT4oMini  = "gpt-4o-mini"
)

// DefaultChatModels is the default selection list shown in the UI.
var DefaultChatModels = []string{ModelGPT35Turbo, ModelGPT4o}

// DefaultTitleModel is the cheaper model used to summarize a first prompt.
const DefaultTitleModel = ModelGPT4oMini

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains display metadata about a completion model.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's capability level
	Tier string `json:"tier"`

	// CostPer1K is the cost per 1000 tokens in dollars
	CostPer1K float64 `json:"cost_per_1k"`

	// MaxTokens is the maximum context window size
	MaxTokens int `json:"max_tokens"`
}

// Models is the registry of known models keyed by ID.
var Models = map[string]ModelInfo{
	ModelGPT35Turbo: {
		ID:        ModelGPT35Turbo,
		Name:      "GPT-3.5 Turbo",
		Tier:      "Fast",
		CostPer1K: 0.0005,
		MaxTokens: 16385,
	},
	ModelGPT4o: {
		ID:        ModelGPT4o,
		Name:      "GPT-4o",
		Tier:      "Balanced",
		CostPer1K: 0.0025,
		MaxTokens: 128000,
	},
	ModelGPT4oMini: {
		ID:        ModelGPT4oMini,
		Name:      "GPT-4o Mini",
		Tier:      "Fast",
		CostPer1K: 0.00015,
		MaxTokens: 128000,
	},
}

// =============================================================================
// MODEL INFO METHODS
// =============================================================================

// CostString returns a formatted cost string.
func (m ModelInfo) CostString() string {
	if m.CostPer1K == 0 {
		return "unknown"
	}
	if m.CostPer1K < 0.001 {
		return fmt.Sprintf("$%.5f/1K", m.CostPer1K)
	}
	return fmt.Sprintf("$%.4f/1K", m.CostPer1K)
}

// ContextString returns a formatted context window string.
func (m ModelInfo) ContextString() string {
	if m.MaxTokens >= 1000 {
		return fmt.Sprintf("%dK tokens", m.MaxTokens/1000)
	}
	return fmt.Sprintf("%d tokens", m.MaxTokens)
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// GetModelInfo looks up a model by ID.
func GetModelInfo(id string) (ModelInfo, bool) {
	info, ok := Models[id]
	return info, ok
}

// DisplayName returns the registry name for id, or id itself when unknown.
// Endpoints that are OpenAI-compatible may serve models not listed here.
func DisplayName(id string) string {
	if info, ok := Models[id]; ok {
		return info.Name
	}
	return id
}
