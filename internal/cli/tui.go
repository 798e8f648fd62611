// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Interactive chat entry point.
package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbook/internal/ui/chat"
	"github.com/jeranaias/chatbook/internal/ui/styles"
)

// RunTUI opens the chat view and blocks until the user quits.
func (a *App) RunTUI(ctx context.Context, args Args) error {
	if !IsTTY() || !IsStdoutTTY() {
		return &UsageError{
			Message: "the chat view needs an interactive terminal",
			Example: `chatbook ask "your prompt"`,
		}
	}

	store, err := a.OpenStore(ctx)
	if err != nil {
		return NewCommandError("tui", "open store", err)
	}
	defer store.Close()

	mdl := args.Model
	if mdl == "" {
		mdl = a.Config.Completion.DefaultModel
	}

	var markdown *styles.MarkdownRenderer
	if a.Config.UI.RenderMarkdown {
		markdown = styles.NewMarkdownRenderer()
	}

	m := chat.New(a.NewController(store), styles.NewTheme(), chat.Options{
		ChatID:   args.ChatID,
		Model:    mdl,
		Markdown: markdown,
		Context:  ctx,
	})

	a.Logger.Info("tui started", zap.String("chat_id", args.ChatID), zap.String("model", mdl))
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return NewCommandError("tui", "run", err)
	}
	a.Logger.Info("tui stopped")
	return nil
}
