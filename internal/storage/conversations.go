// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatbook.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatbook/internal/model"
)

// =============================================================================
// STORED CONVERSATION TYPES
// =============================================================================

// StoredConversation is a conversation as read back from the database.
type StoredConversation struct {
	ID        string
	Title     string
	UpdatedAt time.Time
	Turns     []model.Turn
}

// ToConversation converts the stored record into a working conversation.
func (s *StoredConversation) ToConversation() *model.Conversation {
	turns := make([]model.Turn, len(s.Turns))
	copy(turns, s.Turns)
	return &model.Conversation{
		ID:        s.ID,
		Title:     s.Title,
		UpdatedAt: s.UpdatedAt,
		Turns:     turns,
	}
}

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Options configures a ConversationStore.
type Options struct {
	// Path is the SQLite database file. ":memory:" is accepted.
	Path string

	// Now returns the save timestamp. Default: time.Now
	Now func() time.Time

	// Logger receives debug and error logs. Default: no-op
	Logger *zap.Logger
}

// ConversationStore persists conversations and their turns in SQLite.
type ConversationStore struct {
	db     *sql.DB
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// Open opens (creating if needed) the database at opts.Path and applies the
// schema.
func Open(ctx context.Context, opts Options) (*ConversationStore, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, storageErr("open", "", errors.New("database path is required"))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, storageErr("open", "", fmt.Errorf("failed to create database directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, storageErr("open", "", fmt.Errorf("failed to open database: %w", err))
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, storageErr("open", "", fmt.Errorf("failed to set pragma: %w", err))
		}
	}

	s := &ConversationStore{
		db:     db,
		path:   opts.Path,
		now:    opts.Now,
		logger: opts.Logger.Named("storage"),
	}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, storageErr("open", "", fmt.Errorf("failed to initialize schema: %w", err))
	}

	s.logger.Debug("conversation store opened", zap.String("path", opts.Path))
	return s, nil
}

// initSchema creates the database schema
func (s *ConversationStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, InitMetadata)
	return err
}

// Path returns the database location.
func (s *ConversationStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *ConversationStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save replaces everything stored for id with title and turns.
//
// Turns are written with message_no equal to their position in the slice;
// any Index carried by the input is ignored. The delete and reinsert run in
// one transaction. Save returns the update time that was recorded.
func (s *ConversationStore) Save(ctx context.Context, id, title string, turns []model.Turn) (time.Time, error) {
	if strings.TrimSpace(id) == "" {
		return time.Time{}, storageErr("save", "", ErrEmptyID)
	}
	for i, t := range turns {
		if err := t.Validate(); err != nil {
			return time.Time{}, storageErr("save", id, fmt.Errorf("turn %d: %w", i, err))
		}
	}

	updatedAt := time.Unix(s.now().Unix(), 0)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, storageErr("save", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteChatSQL, id); err != nil {
		return time.Time{}, storageErr("save", id, fmt.Errorf("failed to clear chat: %w", err))
	}
	if _, err := tx.ExecContext(ctx, deleteMessagesSQL, id); err != nil {
		return time.Time{}, storageErr("save", id, fmt.Errorf("failed to clear messages: %w", err))
	}
	if _, err := tx.ExecContext(ctx, insertChatSQL, id, title, updatedAt.Unix()); err != nil {
		return time.Time{}, storageErr("save", id, fmt.Errorf("failed to insert chat: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, insertMessageSQL)
	if err != nil {
		return time.Time{}, storageErr("save", id, err)
	}
	defer stmt.Close()

	for i, t := range turns {
		if _, err := stmt.ExecContext(ctx, id, i, t.Role.String(), t.Content, t.Model); err != nil {
			return time.Time{}, storageErr("save", id, fmt.Errorf("failed to insert message %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return time.Time{}, storageErr("save", id, fmt.Errorf("commit: %w", err))
	}

	s.logger.Debug("conversation saved",
		zap.String("chat_id", id),
		zap.Int("turns", len(turns)),
		zap.Int64("updated_at", updatedAt.Unix()))
	return updatedAt, nil
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation by ID with its turns in sequence order.
// An unknown ID returns ErrConversationNotFound.
func (s *ConversationStore) Load(ctx context.Context, id string) (*StoredConversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, storageErr("load", "", ErrEmptyID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("load", id, err)
	}
	defer tx.Rollback()

	conv := &StoredConversation{ID: id}
	var updatedAt int64
	err = tx.QueryRowContext(ctx, selectChatSQL, id).Scan(&conv.Title, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, storageErr("load", id, err)
	}
	conv.UpdatedAt = time.Unix(updatedAt, 0)

	rows, err := tx.QueryContext(ctx, selectMessagesSQL, id)
	if err != nil {
		return nil, storageErr("load", id, err)
	}
	defer rows.Close()

	conv.Turns = make([]model.Turn, 0)
	for rows.Next() {
		var (
			no      int
			role    string
			content string
			mdl     string
		)
		if err := rows.Scan(&no, &role, &content, &mdl); err != nil {
			return nil, storageErr("load", id, err)
		}
		if no != len(conv.Turns) {
			return nil, storageErr("load", id, fmt.Errorf("message sequence gap: expected %d, found %d", len(conv.Turns), no))
		}
		r, err := model.ParseRole(role)
		if err != nil {
			return nil, storageErr("load", id, fmt.Errorf("message %d: %w", no, err))
		}
		conv.Turns = append(conv.Turns, model.Turn{
			Index:   no,
			Role:    r,
			Content: content,
			Model:   mdl,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load", id, err)
	}

	return conv, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// ListRecent returns the oldest limit conversations by update time, in
// ascending order. Equal timestamps are ordered by ID.
func (s *ConversationStore) ListRecent(ctx context.Context, limit int) ([]ConversationMeta, error) {
	if limit <= 0 {
		return []ConversationMeta{}, nil
	}

	rows, err := s.db.QueryContext(ctx, selectRecentSQL, limit)
	if err != nil {
		return nil, storageErr("list", "", err)
	}
	defer rows.Close()

	metas := make([]ConversationMeta, 0, limit)
	for rows.Next() {
		var (
			meta      ConversationMeta
			updatedAt int64
		)
		if err := rows.Scan(&meta.ID, &meta.Title, &updatedAt); err != nil {
			return nil, storageErr("list", "", err)
		}
		meta.UpdatedAt = time.Unix(updatedAt, 0)
		metas = append(metas, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", "", err)
	}

	return metas, nil
}
