// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive chat view for chatbook.

The package implements a Bubble Tea model on top of a session.Controller.
It shows one conversation at a time next to a sidebar of recently saved
conversations.

# Layout

  - Header with the conversation title, selected model and state badge
  - Sidebar with "New Chat" and the conversations the store lists
  - Transcript viewport; assistant turns are rendered with glamour
  - Input box, replaced by a spinner while a reply is pending
  - Status line for errors, notices and shortcuts

# Concurrency

Submit, retry and open run as tea.Cmds (see update.go). Each returns a
message carrying a conversation snapshot, and the view only ever renders
snapshots. Keys that would start another call are ignored while one is in
flight.

# Key Bindings

	enter    send, or open the selected sidebar entry
	tab      cycle the chat model
	ctrl+r   retry the unanswered prompt
	ctrl+n   start a new chat
	ctrl+o   toggle sidebar focus (up/down move through it)
	ctrl+y   copy the last reply
	esc      quit
*/
package chat
