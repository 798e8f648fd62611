// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"assistant", RoleAssistant, false},
		{" Assistant ", RoleAssistant, false},
		{"system", "", true},
		{"tool", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRole))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurn_Validate(t *testing.T) {
	require.NoError(t, NewUserTurn("hi", ModelGPT4o).Validate())
	require.NoError(t, NewAssistantTurn("", ModelGPT4o).Validate())

	err := Turn{Role: "system", Content: "x", Model: ModelGPT4o}.Validate()
	assert.ErrorIs(t, err, ErrInvalidRole)

	err = Turn{Role: RoleUser, Content: "x", Model: "  "}.Validate()
	assert.ErrorIs(t, err, ErrMissingModel)
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation()

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, SentinelTitle, conv.Title)
	assert.True(t, conv.HasSentinelTitle())
	assert.True(t, conv.IsEmpty())
	assert.False(t, conv.NeedsReply())
}

func TestNewConversationID_Sortable(t *testing.T) {
	prev := NewConversationID()
	for i := 0; i < 50; i++ {
		next := NewConversationID()
		assert.NotEqual(t, prev, next)
		assert.Less(t, prev, next, "IDs should sort by creation order")
		prev = next
	}
}

func TestConversation_AppendTurn(t *testing.T) {
	conv := NewConversation()
	conv.AppendTurn(RoleUser, "Hello", ModelGPT35Turbo)
	assert.True(t, conv.NeedsReply())

	conv.AppendTurn(RoleAssistant, "Hi there!", ModelGPT35Turbo)
	assert.False(t, conv.NeedsReply())

	require.Equal(t, 2, conv.TurnCount())
	for i, turn := range conv.Turns {
		assert.Equal(t, i, turn.Index)
	}

	last, ok := conv.LastTurn()
	require.True(t, ok)
	assert.Equal(t, "Hi there!", last.Content)
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversation()
	conv.AppendTurn(RoleUser, "Hello", ModelGPT4o)

	clone := conv.Clone()
	clone.Turns[0].Content = "changed"
	clone.Title = "other"

	assert.Equal(t, "Hello", conv.Turns[0].Content)
	assert.Equal(t, SentinelTitle, conv.Title)
}

func TestReindex(t *testing.T) {
	turns := []Turn{
		{Index: 4, Role: RoleUser, Content: "a", Model: ModelGPT4o},
		{Index: 9, Role: RoleAssistant, Content: "b", Model: ModelGPT4o},
	}
	out := Reindex(turns)
	assert.Equal(t, 0, out[0].Index)
	assert.Equal(t, 1, out[1].Index)
	assert.Equal(t, 4, turns[0].Index, "input must not be modified")
}

// =============================================================================
// MODEL REGISTRY TESTS
// =============================================================================

func TestModels_Registry(t *testing.T) {
	for _, id := range DefaultChatModels {
		info, ok := GetModelInfo(id)
		require.True(t, ok, "default chat model %s should be registered", id)
		assert.Equal(t, id, info.ID)
	}
	assert.NotContains(t, DefaultChatModels, DefaultTitleModel)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "GPT-4o", DisplayName(ModelGPT4o))
	assert.Equal(t, "custom-model", DisplayName("custom-model"))
}

func TestModelInfo_Strings(t *testing.T) {
	info := Models[ModelGPT4o]
	assert.Equal(t, "128K tokens", info.ContextString())
	assert.Equal(t, "$0.0025/1K", info.CostString())
	assert.Equal(t, "$0.00015/1K", Models[ModelGPT4oMini].CostString())
}
