// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chatbook/internal/model"
	"github.com/jeranaias/chatbook/internal/session"
	"github.com/jeranaias/chatbook/internal/storage"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionOpenedMsg reports the result of opening a conversation.
type SessionOpenedMsg struct {
	Session  *session.Session
	Snapshot *model.Conversation
	Notice   string // set when the requested conversation was replaced
	Err      error
}

// ReplyMsg reports the result of a submit or retry.
type ReplyMsg struct {
	Session  *session.Session
	Turn     model.Turn
	Snapshot *model.Conversation
	Err      error
}

// =============================================================================
// SIDEBAR MESSAGES
// =============================================================================

// RecentMsg carries a refreshed recency listing.
type RecentMsg struct {
	Conversations []storage.ConversationMeta
	Err           error
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// CopiedMsg reports the result of copying the last reply.
type CopiedMsg struct {
	Err error
}
