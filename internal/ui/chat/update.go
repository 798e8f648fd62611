// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatbook/internal/session"
	"github.com/jeranaias/chatbook/internal/storage"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// The commands below run blocking session calls off the update loop. Each
// returns a message carrying a snapshot so rendering never touches a
// session that is still in flight.

// OpenSessionCmd resumes id, or starts a new conversation when id is empty.
// With fallback set, an unknown id opens a fresh conversation and reports a
// notice instead of an error.
func OpenSessionCmd(ctx context.Context, ctrl *session.Controller, id string, fallback bool) tea.Cmd {
	return func() tea.Msg {
		sess, err := ctrl.Open(ctx, id)
		if err != nil {
			if fallback && errors.Is(err, storage.ErrConversationNotFound) {
				sess = ctrl.NewSession()
				return SessionOpenedMsg{
					Session:  sess,
					Snapshot: sess.Snapshot(),
					Notice:   fmt.Sprintf("Conversation %s not found, started a new chat", id),
				}
			}
			return SessionOpenedMsg{Err: err}
		}
		return SessionOpenedMsg{Session: sess, Snapshot: sess.Snapshot()}
	}
}

// SubmitCmd sends prompt on sess with the given model.
func SubmitCmd(ctx context.Context, sess *session.Session, mdl, prompt string) tea.Cmd {
	return func() tea.Msg {
		turn, err := sess.Submit(ctx, mdl, prompt)
		return ReplyMsg{Session: sess, Turn: turn, Snapshot: sess.Snapshot(), Err: err}
	}
}

// RetryCmd re-requests the reply to the unanswered prompt on sess.
func RetryCmd(ctx context.Context, sess *session.Session, mdl string) tea.Cmd {
	return func() tea.Msg {
		turn, err := sess.Retry(ctx, mdl)
		return ReplyMsg{Session: sess, Turn: turn, Snapshot: sess.Snapshot(), Err: err}
	}
}

// RecentCmd loads the recency listing for the sidebar.
func RecentCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		metas, err := ctrl.Recent(ctx)
		return RecentMsg{Conversations: metas, Err: err}
	}
}

// CopyCmd copies text to the system clipboard.
func CopyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopiedMsg{Err: copyToClipboard(text)}
	}
}
