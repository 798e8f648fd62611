// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes saved conversations and the turn protocol over a
// small JSON API, for editors and scripts that want chatbook's history
// without the terminal UI.
//
// # Endpoints
//
//   - GET  /health                           - Health check (never needs auth)
//   - GET  /v1/models                        - Selectable chat models
//   - GET  /v1/conversations?limit=N         - Oldest N conversations by update time, ascending
//   - POST /v1/conversations                 - Start an untitled conversation
//   - GET  /v1/conversations/{id}            - Conversation with state
//   - POST /v1/conversations/{id}/messages   - Submit {"model","prompt"}
//   - POST /v1/conversations/{id}/retry      - Retry {"model"}
//
// Errors use one body shape:
//
//	{"error": {"message": "...", "type": "conflict_error", "code": 409}}
//
// A reply that was produced but could not be saved comes back as a 500 with
// the reply attached under "reply".
//
// # Sessions
//
// Each conversation has at most one live session.Session, kept in memory
// until it has been idle for Options.SessionTTL. Two requests on the same
// conversation therefore share its busy guard and the second gets 409.
//
// # Security
//
//   - Bearer token authentication with constant-time comparison
//   - Per-IP token bucket rate limiting
//   - CORS for configured origins only
//   - Security headers (X-Content-Type-Options, X-Frame-Options, etc.)
//   - Request bodies capped at 1MB
//
// # Usage
//
//	srv := server.New(ctrl, store, server.Options{
//		Addr:  "127.0.0.1:8787",
//		Token: cfg.Server.Token,
//	})
//	if err := srv.ListenAndServe(ctx); err != nil {
//		return err
//	}
package server
