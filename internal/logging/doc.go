// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the application logger.
//
// Logs are JSON lines written to a size-rotated file. Nothing is written to
// the terminal, which belongs to the TUI.
//
// # Usage
//
//	logger, closeLog, err := logging.New(logging.Options{Path: cfg.Log.Path, Level: cfg.Log.Level})
//	if err != nil {
//	    return err
//	}
//	defer closeLog()
//
// ReadEntries reads the file back, newest first, for the logs command.
package logging
