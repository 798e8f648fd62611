// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for chatbook commands.
//
// Commands always return errors and let main decide how to display them.

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/chatbook/internal/cloud"
	"github.com/jeranaias/chatbook/internal/config"
	"github.com/jeranaias/chatbook/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates authentication failure
	ExitAuthError = 4
	// ExitNetworkError indicates a failed completion request
	ExitNetworkError = 5
	// ExitStorageError indicates the conversation database failed
	ExitStorageError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports invalid command usage.
type UsageError struct {
	Message string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\n  Example: %s", e.Message, e.Example)
	}
	return e.Message
}

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "show", "ask")
	Action  string // Action being performed (e.g., "load", "save")
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: failed to %s: %v", e.Command, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err with command context. A nil err returns nil.
func NewCommandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var validateErrs config.ValidateErrors
	var storageErr *storage.StorageError

	switch {
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &validateErrs):
		return ExitConfigError
	case errors.Is(err, storage.ErrConversationNotFound):
		return ExitNotFoundError
	case errors.Is(err, cloud.ErrNotConfigured):
		return ExitConfigError
	case errors.Is(err, cloud.ErrAuthFailed):
		return ExitAuthError
	case errors.Is(err, cloud.ErrTimeout):
		return ExitTimeoutError
	case errors.Is(err, cloud.ErrCompletionFailed):
		return ExitNetworkError
	case errors.As(err, &storageErr):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}

// Hint returns a short suggestion for well-known errors, or "".
func Hint(err error) string {
	switch {
	case errors.Is(err, cloud.ErrNotConfigured):
		return "Set CHATBOOK_API_KEY (or OPENAI_API_KEY), or api_key in ~/.chatbook/config.toml"
	case errors.Is(err, cloud.ErrAuthFailed):
		return "Check that your API key is valid for the configured base_url"
	case errors.Is(err, cloud.ErrModelNotFound):
		return "Check completion.models in your config"
	case errors.Is(err, storage.ErrConversationNotFound):
		return "Run 'chatbook list' to see saved conversations"
	default:
		return ""
	}
}
