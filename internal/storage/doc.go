// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatbook.
//
// Conversations and their turns live in a single SQLite database accessed
// through database/sql and the pure Go modernc.org/sqlite driver.
//
// # Key Types
//
//   - ConversationStore: SQLite-backed store with full-snapshot saves
//   - StoredConversation: Title, update time and ordered turns as loaded
//   - ConversationMeta: Lightweight {id, title} pair for listing
//   - StorageError: Wrapper for every I/O or constraint failure
//
// # Usage
//
//	store, err := storage.Open(ctx, storage.Options{Path: dbPath})
//	defer store.Close()
//
//	_, err = store.Save(ctx, conv.ID, conv.Title, conv.Turns)
//	loaded, err := store.Load(ctx, conv.ID)
//	metas, err := store.ListRecent(ctx, 10)
//
// # Semantics
//
// Save replaces everything stored for a conversation inside one transaction,
// so readers see either the old snapshot or the new one. Load of an unknown
// ID returns ErrConversationNotFound. ListRecent orders by update time
// ascending.
package storage
