// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Non-interactive chatbook commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/chatbook/internal/config"
	"github.com/jeranaias/chatbook/internal/logging"
	"github.com/jeranaias/chatbook/internal/model"
	"github.com/jeranaias/chatbook/internal/storage"
	"github.com/jeranaias/chatbook/internal/util"
)

const (
	idColumnWidth    = 36
	titleColumnWidth = 40
	defaultLogLimit  = 50
)

// =============================================================================
// LIST
// =============================================================================

// RunList prints conversations in store listing order (oldest N by update
// time, ascending).
func (a *App) RunList(ctx context.Context, args Args) error {
	limit := args.Limit
	if limit <= 0 {
		limit = a.Config.UI.RecentLimit
	}

	return OutputJSON(a.Out, args.JSON, "list", func() (interface{}, error) {
		store, err := a.OpenStore(ctx)
		if err != nil {
			return nil, NewCommandError("list", "open store", err)
		}
		defer store.Close()

		metas, err := store.ListRecent(ctx, limit)
		if err != nil {
			return nil, NewCommandError("list", "list conversations", err)
		}
		if !args.JSON {
			a.printList(metas)
		}
		return metas, nil
	})
}

func (a *App) printList(metas []storage.ConversationMeta) {
	if len(metas) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("No saved conversations."))
		return
	}

	header := util.PadRight("ID", idColumnWidth) + "  " +
		util.PadRight("TITLE", titleColumnWidth) + "  UPDATED"
	fmt.Fprintln(a.Out, LabelStyle.Render(header))
	for _, m := range metas {
		title := util.TruncateWidth(util.SingleLine(m.Title), titleColumnWidth)
		fmt.Fprintf(a.Out, "%s  %s  %s\n",
			util.PadRight(m.ID, idColumnWidth),
			util.PadRight(title, titleColumnWidth),
			m.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

// =============================================================================
// SHOW
// =============================================================================

// RunShow prints one stored conversation.
func (a *App) RunShow(ctx context.Context, args Args) error {
	return OutputJSON(a.Out, args.JSON, "show", func() (interface{}, error) {
		store, err := a.OpenStore(ctx)
		if err != nil {
			return nil, NewCommandError("show", "open store", err)
		}
		defer store.Close()

		stored, err := store.Load(ctx, args.ChatID)
		if err != nil {
			return nil, NewCommandError("show", "load conversation", err)
		}
		conv := stored.ToConversation()
		if !args.JSON {
			a.printTranscript(conv)
		}
		return conv, nil
	})
}

func (a *App) printTranscript(conv *model.Conversation) {
	fmt.Fprintln(a.Out, TitleStyle.Render(conv.Title))
	fmt.Fprintln(a.Out, DimStyle.Render(fmt.Sprintf("%s  updated %s",
		conv.ID, conv.UpdatedAt.Local().Format(time.RFC1123))))
	fmt.Fprintln(a.Out, RenderSeparator(a.separatorWidth()))

	for _, turn := range conv.Turns {
		label := UserStyle.Render("You")
		content := turn.Content
		if turn.IsAssistant() {
			label = AssistantStyle.Render("Assistant")
			if a.Markdown != nil {
				content = a.Markdown.Render(content, a.separatorWidth())
			}
		}
		fmt.Fprintf(a.Out, "%s %s\n", label, DimStyle.Render("("+turn.Model+")"))
		fmt.Fprintln(a.Out, content)
		fmt.Fprintln(a.Out)
	}
}

func (a *App) separatorWidth() int {
	if a.Width <= 0 || a.Width > 100 {
		return 70
	}
	return a.Width
}

// =============================================================================
// ASK
// =============================================================================

// RunAsk submits a single prompt through the turn protocol and prints the
// reply. The conversation ID goes to stderr so stdout stays pipeable.
func (a *App) RunAsk(ctx context.Context, args Args) error {
	store, err := a.OpenStore(ctx)
	if err != nil {
		return NewCommandError("ask", "open store", err)
	}
	defer store.Close()

	ctrl := a.NewController(store)
	sess, err := ctrl.Open(ctx, args.ChatID)
	if err != nil {
		return NewCommandError("ask", "open conversation", err)
	}

	mdl := args.Model
	if mdl == "" {
		mdl = a.Config.Completion.DefaultModel
	}

	turn, err := sess.Submit(ctx, mdl, args.Prompt)
	if err != nil {
		var storeErr *storage.StorageError
		if errors.As(err, &storeErr) {
			// The reply arrived but could not be saved.
			fmt.Fprintln(a.Out, turn.Content)
		}
		return NewCommandError("ask", "submit prompt", err)
	}

	fmt.Fprintln(a.Out, turn.Content)
	fmt.Fprintln(a.Err, DimStyle.Render(fmt.Sprintf("chat %s: %s", sess.ID(), sess.Title())))
	return nil
}

// =============================================================================
// CONFIG
// =============================================================================

// RunConfig handles "config init" and "config show".
func (a *App) RunConfig(args Args) error {
	switch args.Subcommand {
	case "init":
		path := a.ConfigPath
		if path == "" {
			var err error
			if path, err = config.ConfigPathTOML(); err != nil {
				return NewCommandError("config", "locate config", err)
			}
		}
		if _, err := os.Stat(path); err == nil && !args.Force {
			return &UsageError{
				Message: fmt.Sprintf("config file already exists: %s", path),
				Example: "chatbook config init --force",
			}
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return NewCommandError("config", "write config", err)
		}
		fmt.Fprintf(a.Out, "Wrote %s\n", path)
		return nil
	default:
		fmt.Fprint(a.Out, a.Config.String())
		client := NewCompletionClient(a.Config, a.Logger)
		fmt.Fprintf(a.Out, "\n# endpoint: %s\n# api key:  %s\n", client.BaseURL(), client.APIKeyMasked())
		return nil
	}
}

// =============================================================================
// LOGS
// =============================================================================

// RunLogs prints recent log entries, newest first.
func (a *App) RunLogs(args Args) error {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	path := config.ExpandPath(a.Config.Log.Path)

	return OutputJSON(a.Out, args.JSON, "logs", func() (interface{}, error) {
		entries, err := logging.ReadEntries(path, args.Level, limit)
		if err != nil {
			return nil, NewCommandError("logs", "read log file", err)
		}
		if !args.JSON {
			a.printLogs(entries)
		}
		return entries, nil
	})
}

func (a *App) printLogs(entries []logging.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("No log entries."))
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %-5s %s", e.Timestamp, strings.ToUpper(e.Level), e.Message)
		if e.Logger != "" {
			line += " " + DimStyle.Render("["+e.Logger+"]")
		}
		fmt.Fprintln(a.Out, line)
	}
}
