// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbook/internal/cloud"
	"github.com/jeranaias/chatbook/internal/model"
)

// TitlePrompt builds the titling request for a conversation's first prompt.
func TitlePrompt(prompt string) string {
	return "Summarize the following question as a short title of at most 20 characters. Reply with the title only.\n```\n" +
		prompt + "\n```"
}

// Session is the handle for one active conversation.
type Session struct {
	ctrl *Controller

	mu    sync.Mutex
	busy  bool
	conv  *model.Conversation
	state State

	// titled is set once a title request succeeds, so a model answering
	// with the sentinel title is not asked again.
	titled bool
}

func newSession(ctrl *Controller, conv *model.Conversation) *Session {
	return &Session{
		ctrl:   ctrl,
		conv:   conv,
		state:  StateOf(conv),
		titled: !conv.HasSentinelTitle(),
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the conversation ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.ID
}

// Title returns the current title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Title
}

// State returns the protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the conversation turns.
func (s *Session) Turns() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]model.Turn, len(s.conv.Turns))
	copy(turns, s.conv.Turns)
	return turns
}

// Snapshot returns a deep copy of the conversation.
func (s *Session) Snapshot() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Clone()
}

// Busy reports whether a call is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// =============================================================================
// TURN PROTOCOL
// =============================================================================

// Submit sends prompt with the chosen model and returns the assistant turn.
//
// An untitled conversation is titled first; if that fails nothing changes.
// If the reply fails the user turn stays and the state is
// StateAwaitingResponse. If saving fails the reply stays in memory and the
// storage error is returned.
func (s *Session) Submit(ctx context.Context, mdl, prompt string) (model.Turn, error) {
	if !s.ctrl.knownModel(mdl) {
		return model.Turn{}, fmt.Errorf("%w: %q", ErrUnknownModel, mdl)
	}
	if strings.TrimSpace(prompt) == "" {
		return model.Turn{}, ErrEmptyPrompt
	}
	if !s.acquire() {
		return model.Turn{}, ErrBusy
	}
	defer s.release()

	s.mu.Lock()
	needsTitle := !s.titled
	id := s.conv.ID
	s.mu.Unlock()

	if needsTitle {
		title, err := s.ctrl.completer.Complete(ctx, s.ctrl.opts.TitleModel, []cloud.Message{
			cloud.NewUserMessage(TitlePrompt(prompt)),
		})
		if err != nil {
			s.ctrl.logger.Warn("title request failed", zap.String("chat_id", id), zap.Error(err))
			return model.Turn{}, err
		}
		s.mu.Lock()
		s.conv.Title = title
		s.titled = true
		s.mu.Unlock()
		s.ctrl.logger.Debug("conversation titled", zap.String("chat_id", id), zap.String("title", title))
	}

	s.mu.Lock()
	s.conv.AppendTurn(model.RoleUser, prompt, mdl)
	s.state = StateAwaitingResponse
	s.mu.Unlock()

	return s.reply(ctx, mdl)
}

// Retry re-requests a reply for the unanswered user turn.
func (s *Session) Retry(ctx context.Context, mdl string) (model.Turn, error) {
	if !s.ctrl.knownModel(mdl) {
		return model.Turn{}, fmt.Errorf("%w: %q", ErrUnknownModel, mdl)
	}
	if !s.acquire() {
		return model.Turn{}, ErrBusy
	}
	defer s.release()

	if s.State() != StateAwaitingResponse {
		return model.Turn{}, ErrNothingToRetry
	}
	return s.reply(ctx, mdl)
}

// reply requests a completion over the full history, appends it and saves.
// The caller holds the busy flag.
func (s *Session) reply(ctx context.Context, mdl string) (model.Turn, error) {
	s.mu.Lock()
	id := s.conv.ID
	messages := cloud.MessagesFromTurns(s.conv.Turns)
	s.mu.Unlock()

	content, err := s.ctrl.completer.Complete(ctx, mdl, messages)
	if err != nil {
		s.ctrl.logger.Warn("reply request failed",
			zap.String("chat_id", id),
			zap.String("model", mdl),
			zap.Error(err))
		return model.Turn{}, err
	}

	s.mu.Lock()
	turn := s.conv.AppendTurn(model.RoleAssistant, content, mdl)
	s.state = StateIdle
	title := s.conv.Title
	turns := make([]model.Turn, len(s.conv.Turns))
	copy(turns, s.conv.Turns)
	s.mu.Unlock()

	updatedAt, err := s.ctrl.store.Save(ctx, id, title, turns)
	if err != nil {
		s.ctrl.logger.Error("save failed", zap.String("chat_id", id), zap.Error(err))
		return turn, err
	}

	s.mu.Lock()
	s.conv.UpdatedAt = updatedAt
	s.mu.Unlock()

	s.ctrl.logger.Info("turn completed",
		zap.String("chat_id", id),
		zap.String("model", mdl),
		zap.Int("turns", len(turns)))
	return turn, nil
}

func (s *Session) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
