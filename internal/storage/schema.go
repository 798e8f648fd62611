// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema creates the conversation tables.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS chats (
    chat_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    updated_at INTEGER NOT NULL -- Unix seconds
);

CREATE INDEX IF NOT EXISTS idx_chats_updated_at ON chats(updated_at);

CREATE TABLE IF NOT EXISTS messages (
    chat_id TEXT NOT NULL,
    message_no INTEGER NOT NULL,
    role TEXT NOT NULL,      -- user, assistant
    content TEXT NOT NULL,
    model TEXT NOT NULL,
    PRIMARY KEY (chat_id, message_no)
);
`

// InitMetadata records the schema version on first open.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`

const (
	deleteChatSQL     = `DELETE FROM chats WHERE chat_id = ?`
	deleteMessagesSQL = `DELETE FROM messages WHERE chat_id = ?`
	insertChatSQL     = `INSERT INTO chats (chat_id, title, updated_at) VALUES (?, ?, ?)`
	insertMessageSQL  = `INSERT INTO messages (chat_id, message_no, role, content, model) VALUES (?, ?, ?, ?, ?)`
	selectChatSQL     = `SELECT title, updated_at FROM chats WHERE chat_id = ?`
	selectMessagesSQL = `SELECT message_no, role, content, model FROM messages WHERE chat_id = ? ORDER BY message_no`
	selectRecentSQL   = `SELECT chat_id, title, updated_at FROM chats ORDER BY updated_at ASC, chat_id ASC LIMIT ?`
)
