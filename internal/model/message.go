// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrInvalidRole is returned when a role is outside the supported set.
var ErrInvalidRole = errors.New("invalid role")

// ErrMissingModel is returned when a turn has no model recorded.
var ErrMissingModel = errors.New("turn model is required")

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// ParseRole converts a stored role string into a Role.
// Surrounding whitespace and case are ignored; anything else is rejected.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one message in a conversation.
// Index is the zero-based position within the owning conversation.
type Turn struct {
	Index   int    `json:"index"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model"`
}

// NewUserTurn creates a user turn. The index is assigned on append.
func NewUserTurn(content, model string) Turn {
	return Turn{Role: RoleUser, Content: content, Model: model}
}

// NewAssistantTurn creates an assistant turn. The index is assigned on append.
func NewAssistantTurn(content, model string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Model: model}
}

// Validate checks that the turn can be persisted.
func (t Turn) Validate() error {
	if !t.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, string(t.Role))
	}
	if strings.TrimSpace(t.Model) == "" {
		return ErrMissingModel
	}
	return nil
}

// IsUser returns true if this is a user turn.
func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}

// IsAssistant returns true if this is an assistant turn.
func (t Turn) IsAssistant() bool {
	return t.Role == RoleAssistant
}
