// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives the chat turn protocol.
//
// A Controller creates and resumes Sessions. A Session owns one
// conversation: it appends the user's turn, asks the completion service for
// a reply, appends the reply and persists the whole conversation.
//
// # Key Types
//
//   - Controller: Builds sessions from a Store and a Completer
//   - Session: Explicit handle for one active conversation
//   - State: EMPTY, AWAITING_RESPONSE or IDLE
//
// # Usage
//
//	ctrl := session.NewController(store, client, logger, session.DefaultOptions())
//	sess := ctrl.NewSession()
//	reply, err := sess.Submit(ctx, "gpt-4o", "Hello")
//
// # Titling
//
// The first submission of an untitled conversation first asks the title
// model for a short title. A failed title request aborts the submission and
// leaves the session unchanged.
//
// # Concurrency
//
// Calls on one Session are serialized. A call made while another is in
// flight fails with ErrBusy instead of queueing.
package session
