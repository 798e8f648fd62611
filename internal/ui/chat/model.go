// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatbook/internal/model"
	"github.com/jeranaias/chatbook/internal/session"
	"github.com/jeranaias/chatbook/internal/storage"
	"github.com/jeranaias/chatbook/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// ChatID resumes a stored conversation on start. Empty starts a new one.
	ChatID string

	// Model is the initially selected chat model.
	Model string

	// Markdown renders assistant turns. Nil shows plain text.
	Markdown *styles.MarkdownRenderer

	// Context bounds every session call. Default: context.Background()
	Context context.Context
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx  context.Context
	ctrl *session.Controller

	// Conversation. conv is the snapshot last returned by a command.
	session *session.Session
	conv    *model.Conversation
	startID string

	// Model selection
	models   []string
	modelIdx int

	// Sidebar entries as the store lists them (oldest N, ascending), drawn in
	// reverse. Cursor 0 is "New Chat".
	recent        []storage.ConversationMeta
	sidebarFocus  bool
	sidebarCursor int

	// In-flight submit or retry
	busy          bool
	pendingPrompt string
	pendingTurns  int

	// Status line
	lastError error
	notice    string

	// Styling
	theme    *styles.Theme
	markdown *styles.MarkdownRenderer

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	now func() time.Time
}

// New creates a chat model over ctrl.
func New(ctrl *session.Controller, theme *styles.Theme, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if theme == nil {
		theme = styles.NewTheme()
	}
	markdown := opts.Markdown
	if markdown == nil {
		markdown = styles.NewPlainRenderer()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = styles.ThinkingSpinner

	models := ctrl.Models()
	if len(models) == 0 && opts.Model != "" {
		models = []string{opts.Model}
	}
	modelIdx := 0
	for i, m := range models {
		if m == opts.Model {
			modelIdx = i
			break
		}
	}

	return Model{
		ctx:      opts.Context,
		ctrl:     ctrl,
		startID:  opts.ChatID,
		models:   models,
		modelIdx: modelIdx,
		theme:    theme,
		markdown: markdown,
		viewport: vp,
		input:    ti,
		spinner:  sp,
		keyMap:   DefaultKeyMap(),
		now:      time.Now,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init opens the starting conversation and loads the sidebar.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		OpenSessionCmd(m.ctx, m.ctrl, m.startID, true),
		RecentCmd(m.ctx, m.ctrl),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionOpenedMsg:
		return m.handleSessionOpened(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case RecentMsg:
		if msg.Err != nil {
			m.lastError = msg.Err
			return m, nil
		}
		m.recent = msg.Conversations
		m.clampCursor()
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			m.lastError = msg.Err
		} else {
			m.notice = "Reply copied to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)

	// Layout: header (1) + transcript + input box (3) + status bar (1)
	const (
		headerHeight    = 1
		inputAreaHeight = 3
		statusBarHeight = 1
	)
	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = m.transcriptWidth()
	m.viewport.Height = viewportHeight

	// Input box border and padding take 4 columns, the prompt 2 more.
	inputWidth := m.width - 6 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.updateViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.NextModel):
		if len(m.models) > 0 {
			m.modelIdx = (m.modelIdx + 1) % len(m.models)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.CopyReply):
		text, ok := lastReply(m.conv)
		if !ok {
			m.notice = "No reply to copy"
			return m, nil
		}
		return m, CopyCmd(text)

	case key.Matches(msg, m.keyMap.FocusSidebar):
		m.sidebarFocus = !m.sidebarFocus
		m.setInputFocus()
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		m.sidebarFocus = true
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
		m.setInputFocus()
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.sidebarFocus = true
		if m.sidebarCursor < len(m.recent) {
			m.sidebarCursor++
		}
		m.setInputFocus()
		return m, nil
	}

	// Everything below starts or changes a conversation and is ignored
	// while a reply is pending.
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.NewChat):
		return m.openNewChat()

	case key.Matches(msg, m.keyMap.Retry):
		return m.retry()

	case key.Matches(msg, m.keyMap.Submit):
		if m.sidebarFocus {
			return m.openSelected()
		}
		return m.submit()
	}

	if m.sidebarFocus {
		m.sidebarFocus = false
		m.setInputFocus()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSessionOpened(msg SessionOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.lastError = msg.Err
		return m, nil
	}
	m.session = msg.Session
	m.conv = msg.Snapshot
	m.lastError = nil
	m.notice = msg.Notice
	m.sidebarFocus = false
	m.setInputFocus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	if msg.Session != m.session {
		return m, nil
	}
	m.busy = false
	m.conv = msg.Snapshot
	m.updateViewport()
	m.viewport.GotoBottom()

	if msg.Err != nil {
		m.lastError = msg.Err
		// Titling failed before the prompt was recorded; give it back.
		if m.pendingPrompt != "" && len(msg.Snapshot.Turns) == m.pendingTurns && m.input.Value() == "" {
			m.input.SetValue(m.pendingPrompt)
			m.input.CursorEnd()
		}
		m.pendingPrompt = ""
		if isStorageError(msg.Err) {
			m.notice = "Reply received but not saved"
		}
		return m, nil
	}

	m.lastError = nil
	m.pendingPrompt = ""
	return m, RecentCmd(m.ctx, m.ctrl)
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	prompt := m.input.Value()
	if strings.TrimSpace(prompt) == "" {
		return m, nil
	}
	mdl := m.SelectedModel()

	m.busy = true
	m.lastError = nil
	m.notice = ""
	m.pendingPrompt = prompt
	m.pendingTurns = len(m.conv.Turns)
	m.input.Reset()
	return m, tea.Batch(SubmitCmd(m.ctx, m.session, mdl, prompt), m.spinner.Tick)
}

func (m Model) retry() (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	if !m.conv.NeedsReply() {
		m.notice = "Nothing to retry"
		return m, nil
	}
	m.busy = true
	m.lastError = nil
	m.notice = ""
	return m, tea.Batch(RetryCmd(m.ctx, m.session, m.SelectedModel()), m.spinner.Tick)
}

func (m Model) openNewChat() (tea.Model, tea.Cmd) {
	return m, OpenSessionCmd(m.ctx, m.ctrl, "", false)
}

func (m Model) openSelected() (tea.Model, tea.Cmd) {
	if m.sidebarCursor == 0 {
		return m.openNewChat()
	}
	meta := m.recent[len(m.recent)-m.sidebarCursor]
	if m.session != nil && meta.ID == m.session.ID() {
		m.sidebarFocus = false
		m.setInputFocus()
		return m, nil
	}
	return m, OpenSessionCmd(m.ctx, m.ctrl, meta.ID, false)
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) setInputFocus() {
	if m.sidebarFocus {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

func (m *Model) clampCursor() {
	if m.sidebarCursor > len(m.recent) {
		m.sidebarCursor = len(m.recent)
	}
}

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m Model) transcriptWidth() int {
	w := m.width
	if m.theme.ShowSidebar() {
		w -= styles.SidebarWidth + 2
	}
	if w < 1 {
		w = 1
	}
	return w
}

// SelectedModel returns the model the next submission will use.
func (m Model) SelectedModel() string {
	if len(m.models) == 0 {
		return ""
	}
	return m.models[m.modelIdx]
}

// Conversation returns the latest conversation snapshot, or nil before the
// first conversation is open.
func (m Model) Conversation() *model.Conversation {
	return m.conv
}

// Busy reports whether a submit or retry is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// LastError returns the error shown on the status line.
func (m Model) LastError() error {
	return m.lastError
}

// Notice returns the informational message shown on the status line.
func (m Model) Notice() string {
	return m.notice
}

// Recent returns the conversations listed in the sidebar.
func (m Model) Recent() []storage.ConversationMeta {
	return m.recent
}

func isStorageError(err error) bool {
	var storeErr *storage.StorageError
	return errors.As(err, &storeErr)
}
