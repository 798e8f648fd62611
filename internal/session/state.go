// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/chatbook/internal/model"

// State is the position of a session in the turn protocol.
type State int

const (
	// StateEmpty means the conversation has no turns yet.
	StateEmpty State = iota

	// StateAwaitingResponse means the last turn is a user turn without a reply.
	StateAwaitingResponse

	// StateIdle means the last turn is an assistant reply.
	StateIdle
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateAwaitingResponse:
		return "AWAITING_RESPONSE"
	case StateIdle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// StateOf derives the protocol state from a conversation's turns.
func StateOf(conv *model.Conversation) State {
	switch {
	case conv.IsEmpty():
		return StateEmpty
	case conv.NeedsReply():
		return StateAwaitingResponse
	default:
		return StateIdle
	}
}
