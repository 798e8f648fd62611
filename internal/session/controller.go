// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives the chat turn protocol.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbook/internal/cloud"
	"github.com/jeranaias/chatbook/internal/model"
	"github.com/jeranaias/chatbook/internal/storage"
)

// Errors returned by sessions.
var (
	// ErrBusy indicates another call on the same session is in flight.
	ErrBusy = errors.New("session is busy")

	// ErrEmptyPrompt indicates a blank prompt was submitted.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrUnknownModel indicates the model is not one of the configured chat models.
	ErrUnknownModel = errors.New("unknown model")

	// ErrNothingToRetry indicates there is no unanswered user turn.
	ErrNothingToRetry = errors.New("no unanswered prompt to retry")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Store persists conversations.
type Store interface {
	Save(ctx context.Context, id, title string, turns []model.Turn) (time.Time, error)
	Load(ctx context.Context, id string) (*storage.StoredConversation, error)
	ListRecent(ctx context.Context, limit int) ([]storage.ConversationMeta, error)
}

// Completer produces assistant text for an ordered message history.
type Completer interface {
	Complete(ctx context.Context, model string, messages []cloud.Message) (string, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// TitleModel generates conversation titles. Default: gpt-4o-mini
	TitleModel string

	// Models are the selectable chat models. Empty accepts any model.
	Models []string

	// RecentLimit is the number of conversations Recent returns. Default: 10
	RecentLimit int
}

// DefaultOptions returns the default controller options.
func DefaultOptions() Options {
	return Options{
		TitleModel:  model.DefaultTitleModel,
		Models:      append([]string(nil), model.DefaultChatModels...),
		RecentLimit: 10,
	}
}

// Controller creates and resumes sessions.
type Controller struct {
	store     Store
	completer Completer
	logger    *zap.Logger
	opts      Options
}

// NewController creates a controller. A nil logger discards logs.
func NewController(store Store, completer Completer, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.TitleModel) == "" {
		opts.TitleModel = model.DefaultTitleModel
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 10
	}
	opts.Models = append([]string(nil), opts.Models...)
	return &Controller{
		store:     store,
		completer: completer,
		logger:    logger.Named("session"),
		opts:      opts,
	}
}

// Models returns the selectable chat models.
func (c *Controller) Models() []string {
	return append([]string(nil), c.opts.Models...)
}

// TitleModel returns the model used for titling.
func (c *Controller) TitleModel() string {
	return c.opts.TitleModel
}

// Recent lists the oldest RecentLimit conversations by update time, in the
// store's ascending order.
func (c *Controller) Recent(ctx context.Context) ([]storage.ConversationMeta, error) {
	return c.store.ListRecent(ctx, c.opts.RecentLimit)
}

// NewSession starts a fresh, untitled conversation.
func (c *Controller) NewSession() *Session {
	conv := model.NewConversation()
	c.logger.Debug("new session", zap.String("chat_id", conv.ID))
	return newSession(c, conv)
}

// Resume loads a stored conversation into a session. An unknown ID returns
// storage.ErrConversationNotFound.
func (c *Controller) Resume(ctx context.Context, id string) (*Session, error) {
	stored, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s := newSession(c, stored.ToConversation())
	c.logger.Debug("session resumed",
		zap.String("chat_id", id),
		zap.Int("turns", len(stored.Turns)),
		zap.Stringer("state", s.State()))
	return s, nil
}

// Open resumes id, or starts a fresh session when id is empty.
func (c *Controller) Open(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return c.NewSession(), nil
	}
	return c.Resume(ctx, id)
}

func (c *Controller) knownModel(m string) bool {
	if strings.TrimSpace(m) == "" {
		return false
	}
	if len(c.opts.Models) == 0 {
		return true
	}
	for _, known := range c.opts.Models {
		if known == m {
			return true
		}
	}
	return false
}
