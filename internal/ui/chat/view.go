// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbook/internal/model"
	"github.com/jeranaias/chatbook/internal/session"
	"github.com/jeranaias/chatbook/internal/ui/styles"
	"github.com/jeranaias/chatbook/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

func (m Model) renderChat() string {
	if m.width == 0 {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := model.SentinelTitle
	state := session.StateEmpty
	if m.conv != nil {
		title = m.conv.Title
		state = session.StateOf(m.conv)
	}

	badges := m.theme.ModelBadge.Render(modelLabel(m.SelectedModel())) + " " + m.renderStateBadge(state)
	room := m.width - lipgloss.Width(badges) - 3
	title = m.theme.HeaderTitle.Render(util.TruncateWidth(util.SingleLine(title), room))

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(badges) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + badges)
}

func (m Model) renderStateBadge(state session.State) string {
	switch state {
	case session.StateAwaitingResponse:
		return m.theme.StateAwaiting.Render(state.String())
	case session.StateIdle:
		return m.theme.StateIdle.Render(state.String())
	default:
		return m.theme.StateEmpty.Render(state.String())
	}
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	itemWidth := styles.SidebarWidth - 3
	now := m.now()

	lines := []string{m.theme.SidebarHeading.Render("Conversations")}
	lines = append(lines, m.renderSidebarItem(0, "+ "+model.SentinelTitle, false, itemWidth))

	// Reverse of store order, so the latest of the listed entries is on top.
	for i := len(m.recent) - 1; i >= 0; i-- {
		meta := m.recent[i]
		label := util.TruncateWidth(util.SingleLine(meta.Title), itemWidth)
		current := m.session != nil && meta.ID == m.session.ID()
		lines = append(lines, m.renderSidebarItem(len(m.recent)-i, label, current, itemWidth))
		if stamp := formatTimestamp(meta.UpdatedAt, now); stamp != "" {
			lines = append(lines, m.theme.TurnModel.PaddingLeft(3).Render(stamp))
		}
	}

	style := m.theme.Sidebar
	if m.sidebarFocus {
		style = m.theme.SidebarFocused
	}
	return style.Height(m.viewport.Height).MaxHeight(m.viewport.Height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderSidebarItem(index int, label string, current bool, width int) string {
	style := m.theme.SidebarItem
	switch {
	case m.sidebarFocus && index == m.sidebarCursor:
		style = m.theme.SidebarSelected
	case current:
		style = m.theme.SidebarCurrent
	}
	return style.Render(util.PadRight(label, width))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript() string {
	if m.conv == nil || m.conv.IsEmpty() {
		return m.theme.EmptyHint.Render("Start the conversation by typing a message below.")
	}

	width := calculateContentWidth(m.viewport.Width, 2)
	parts := make([]string, 0, len(m.conv.Turns))
	for _, turn := range m.conv.Turns {
		parts = append(parts, m.renderTurn(turn, width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderTurn(turn model.Turn, width int) string {
	label := m.theme.UserLabel.Render(turn.Role.DisplayName())
	content := wrapText(turn.Content, width)
	if turn.IsAssistant() {
		label = m.theme.AssistantLabel.Render(turn.Role.DisplayName())
		if m.markdown.Enabled() {
			content = m.markdown.Render(turn.Content, width)
		}
	}
	header := label + " " + m.theme.TurnModel.Render(turn.Model)
	return header + "\n" + m.theme.TurnContent.Render(content)
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	inner := m.input.View()
	if m.busy {
		inner = m.theme.Spinner.Render(m.spinner.View()) + " " + m.theme.ThinkingText.Render("Thinking...")
	}
	width := m.width - 2
	if width < 1 {
		width = 1
	}
	return m.theme.InputContainer.Width(width).Render(inner)
}

func (m Model) renderStatusBar() string {
	var content string
	switch {
	case m.lastError != nil:
		content = m.theme.ErrorText.Render("Error: " + util.SingleLine(m.lastError.Error()))
	case m.notice != "":
		content = m.theme.NoticeText.Render(m.notice)
	default:
		shortcuts := make([]string, 0, len(m.keyMap.ShortHelp()))
		for _, b := range m.keyMap.ShortHelp() {
			h := b.Help()
			shortcuts = append(shortcuts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
		}
		content = strings.Join(shortcuts, "  ")
	}
	return m.theme.StatusBar.Width(m.width).MaxHeight(1).Render(content)
}
