// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{" warn ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatbook.log")

	logger, closeLog, err := New(Options{Path: path, Level: "info", MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Named("session").Info("turn completed", zap.String("chat_id", "abc"), zap.Int("turns", 2))
	logger.Debug("hidden")
	logger.Warn("title request failed")
	require.NoError(t, closeLog())

	entries, err := ReadEntries(path, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "title request failed", entries[0].Message)

	assert.Equal(t, "INFO", entries[1].Level)
	assert.Equal(t, "turn completed", entries[1].Message)
	assert.Equal(t, "session", entries[1].Logger)
	assert.NotEmpty(t, entries[1].Timestamp)
	assert.Equal(t, "abc", entries[1].Fields["chat_id"])
	assert.Equal(t, float64(2), entries[1].Fields["turns"])
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, _, err := New(Options{Level: "info"})
	assert.Error(t, err)

	_, _, err = New(Options{Path: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	assert.Error(t, err)
}

func TestReadEntriesFiltersAndLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatbook.log")
	content := `{"timestamp":"2025-01-01T00:00:00Z","level":"INFO","message":"one"}
not json
{"timestamp":"2025-01-01T00:00:01Z","level":"ERROR","message":"two"}
{"timestamp":"2025-01-01T00:00:02Z","level":"INFO","message":"three"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	entries, err := ReadEntries(path, "info", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "three", entries[0].Message)
	assert.Equal(t, "one", entries[1].Message)
	assert.Nil(t, entries[0].Fields)

	entries, err = ReadEntries(path, "", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "three", entries[0].Message)
	assert.Equal(t, "two", entries[1].Message)
}

func TestReadEntriesSkipsOverlongLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatbook.log")
	huge := `{"level":"INFO","message":"` + strings.Repeat("x", maxEntrySize) + `"}`
	content := `{"timestamp":"2025-01-01T00:00:00Z","level":"INFO","message":"before"}` + "\n" +
		huge + "\n" +
		`{"timestamp":"2025-01-01T00:00:01Z","level":"INFO","message":"after"}` + "\n" +
		huge
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	entries, err := ReadEntries(path, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "after", entries[0].Message)
	assert.Equal(t, "before", entries[1].Message)
}

func TestReadEntriesIgnoresRotatedBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatbook.log")
	require.NoError(t, os.WriteFile(path, []byte(`{"level":"INFO","message":"active"}`+"\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chatbook-2025-01-01T00-00-00.000.log"),
		[]byte(`{"level":"INFO","message":"rotated"}`+"\n"), 0600))

	entries, err := ReadEntries(path, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "active", entries[0].Message)
}

func TestReadEntriesMissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "none.log"), "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
