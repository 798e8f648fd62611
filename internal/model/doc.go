// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// # Key Types
//
//   - Conversation: A titled, ordered sequence of turns with a stable ID
//   - Turn: One role-tagged message with the model selected when it was sent
//   - Role: Closed set of senders (user, assistant)
//   - ModelInfo: Display metadata for the completion models offered in the UI
//
// # Usage
//
// Start a fresh conversation and append turns:
//
//	conv := model.NewConversation()
//	conv.AppendTurn(model.RoleUser, "Hello", "gpt-4o")
//
// Turn indices are assigned by position and always run 0..n-1.
package model
