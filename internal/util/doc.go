// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across chatbook.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: Display-width truncation with ellipsis
//   - StringWidth: Terminal column width of a string
//   - SingleLine: Collapses whitespace for one-line display
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	label := util.TruncateWidth(util.SingleLine(title), 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
