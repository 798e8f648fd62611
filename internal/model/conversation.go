// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"time"

	"github.com/google/uuid"
)

// SentinelTitle is the placeholder title of a conversation that has not been
// auto-titled yet.
const SentinelTitle = "New Chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a titled, ordered sequence of turns.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []Turn    `json:"turns"`
}

// NewConversation creates an empty conversation with a fresh ID and the
// sentinel title.
func NewConversation() *Conversation {
	return &Conversation{
		ID:    NewConversationID(),
		Title: SentinelTitle,
		Turns: make([]Turn, 0),
	}
}

// NewConversationID returns a globally unique, lexically sortable identifier.
// UUIDv7 strings sort by creation time.
func NewConversationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source fails.
		return uuid.NewString()
	}
	return id.String()
}

// =============================================================================
// TURN MANAGEMENT
// =============================================================================

// AppendTurn adds a turn at the end of the conversation and returns it.
func (c *Conversation) AppendTurn(role Role, content, model string) Turn {
	t := Turn{
		Index:   len(c.Turns),
		Role:    role,
		Content: content,
		Model:   model,
	}
	c.Turns = append(c.Turns, t)
	return t
}

// LastTurn returns the most recent turn, or false if there are none.
func (c *Conversation) LastTurn() (Turn, bool) {
	if len(c.Turns) == 0 {
		return Turn{}, false
	}
	return c.Turns[len(c.Turns)-1], true
}

// NeedsReply returns true if the last turn is from the user.
func (c *Conversation) NeedsReply() bool {
	last, ok := c.LastTurn()
	return ok && last.IsUser()
}

// HasSentinelTitle returns true if the conversation has not been titled yet.
func (c *Conversation) HasSentinelTitle() bool {
	return c.Title == SentinelTitle
}

// TurnCount returns the number of turns.
func (c *Conversation) TurnCount() int {
	return len(c.Turns)
}

// IsEmpty returns true if there are no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.Turns) == 0
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	turns := make([]Turn, len(c.Turns))
	copy(turns, c.Turns)
	return &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		UpdatedAt: c.UpdatedAt,
		Turns:     turns,
	}
}

// Reindex rewrites turn indices to match their positions.
func Reindex(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		t.Index = i
		out[i] = t
	}
	return out
}
