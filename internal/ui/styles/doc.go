// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chatbook TUI.
//
// All colors use Lip Gloss AdaptiveColor so light and dark terminals both
// render legibly.
//
// # Key Types
//
//   - Theme: Every styled component used by the chat view
//   - MarkdownRenderer: Width-aware glamour renderer for assistant replies
//
// # Usage
//
//	theme := styles.NewTheme()
//	header := theme.Header.Render(title)
//
//	md := styles.NewMarkdownRenderer()
//	out := md.Render(reply, width)
package styles
