// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "fmt"

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ErrEmptyID is returned when a save or load is attempted without an ID.
var ErrEmptyID = &ConversationError{Message: "conversation id is required"}

// ConversationError represents a conversation-related error.
// It implements the error interface and can be compared using errors.Is.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// StorageError reports a failed persistence operation.
// Op is the store method that failed; ChatID is empty for listings.
type StorageError struct {
	Op     string
	ChatID string
	Err    error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.ChatID != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.ChatID, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, chatID string, err error) error {
	return &StorageError{Op: op, ChatID: chatID, Err: err}
}
