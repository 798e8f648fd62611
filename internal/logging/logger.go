// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the application logger.
package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the file logger.
type Options struct {
	Path       string
	Level      string // debug, info, warn, error
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// New creates a logger that writes only to the rotated file at opts.Path.
// The returned function flushes and closes the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, nil, errors.New("log path is required")
	}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(rotator),
		level,
	)
	logger := zap.New(core, zap.AddCaller())

	closeFn := func() error {
		return multierr.Append(logger.Sync(), rotator.Close())
	}
	return logger, closeFn, nil
}

// =============================================================================
// READING
// =============================================================================

// Entry is one decoded log line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger,omitempty"`
	Caller    string         `json:"caller,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

var reservedKeys = map[string]bool{
	"timestamp": true, "level": true, "logger": true, "caller": true, "message": true, "stacktrace": true,
}

// maxEntrySize bounds one log line. Longer lines are skipped.
const maxEntrySize = 1024 * 1024

// ReadEntries returns up to limit entries from path, newest first. Only the
// file at path is read; rotated backups beside it are not. An empty level
// matches every entry; otherwise matching is case-insensitive. A missing
// file yields no entries. Lines that are not JSON or longer than
// maxEntrySize are skipped.
func ReadEntries(path, level string, limit int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	reader := bufio.NewReaderSize(file, 64*1024)

	for {
		line, ok, err := readLine(reader, maxEntrySize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if level != "" && !strings.EqualFold(entry.Level, level) {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err == nil {
			for k := range raw {
				if reservedKeys[k] {
					delete(raw, k)
				}
			}
			if len(raw) > 0 {
				entry.Fields = raw
			}
		}
		entries = append(entries, entry)
	}

	// Newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// readLine reads one line from r. ok is false when the line was longer than
// maxLen; its bytes are consumed and dropped.
func readLine(r *bufio.Reader, maxLen int) (line []byte, ok bool, err error) {
	overflow := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || overflow) {
				return line, !overflow, nil
			}
			return nil, false, err
		}
		if !overflow {
			if len(line)+len(chunk) > maxLen {
				overflow = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, !overflow, nil
		}
	}
}
