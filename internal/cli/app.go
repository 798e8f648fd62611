// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for chatbook commands.
package cli

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbook/internal/cloud"
	"github.com/jeranaias/chatbook/internal/config"
	"github.com/jeranaias/chatbook/internal/session"
	"github.com/jeranaias/chatbook/internal/storage"
	"github.com/jeranaias/chatbook/internal/ui/styles"
)

// App carries the collaborators every command needs.
type App struct {
	Config     *config.Config
	ConfigPath string // explicit --config path, empty for the default location
	Logger     *zap.Logger

	Out io.Writer
	Err io.Writer

	// Markdown renders assistant turns for show. Nil prints plain text.
	Markdown *styles.MarkdownRenderer
	Width    int

	// Completer overrides the HTTP completion client (tests).
	Completer session.Completer
}

// NewApp creates an App writing to stdout and stderr. Markdown rendering is
// enabled when stdout is a terminal and the config allows it.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Width:  GetTerminalWidth(),
	}
	if cfg.UI.RenderMarkdown && IsStdoutTTY() {
		app.Markdown = styles.NewMarkdownRenderer()
	}
	return app
}

// OpenStore opens the configured conversation database.
func (a *App) OpenStore(ctx context.Context) (*storage.ConversationStore, error) {
	return storage.Open(ctx, storage.Options{
		Path:   config.ExpandPath(a.Config.Storage.Path),
		Logger: a.Logger,
	})
}

// NewCompletionClient builds the HTTP completion client from cfg.
func NewCompletionClient(cfg *config.Config, logger *zap.Logger) *cloud.Client {
	client := cloud.NewClient(cfg.Completion.APIKey).
		WithBaseURL(cfg.Completion.BaseURL).
		WithTimeout(cfg.Completion.Timeout()).
		WithRateLimit(cfg.Completion.RequestsPerMinute).
		WithLogger(logger)
	logger.Debug("completion client ready",
		zap.String("base_url", client.BaseURL()),
		zap.String("key_fingerprint", client.KeyFingerprint()))
	return client
}

// NewController builds a session controller over store.
func (a *App) NewController(store session.Store) *session.Controller {
	completer := a.Completer
	if completer == nil {
		completer = NewCompletionClient(a.Config, a.Logger)
	}
	return session.NewController(store, completer, a.Logger, session.Options{
		TitleModel:  a.Config.Completion.TitleModel,
		Models:      a.Config.Completion.Models,
		RecentLimit: a.Config.UI.RecentLimit,
	})
}
