// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbook/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeClock returns a strictly increasing clock starting at base.
func fakeClock(base time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	store, err := Open(context.Background(), Options{
		Path: filepath.Join(t.TempDir(), "chat.db"),
		Now:  fakeClock(time.Unix(1700000000, 0)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTurns() []model.Turn {
	return []model.Turn{
		model.NewUserTurn("Hello", model.ModelGPT35Turbo),
		model.NewAssistantTurn("Hi there!", model.ModelGPT35Turbo),
		model.NewUserTurn("What is the capital of France?", model.ModelGPT4o),
		model.NewAssistantTurn("Paris.", model.ModelGPT4o),
	}
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "open", se.Op)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "chat.db")

	store, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	_, err = store.Save(ctx, "chat-1", "Greeting", sampleTurns())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "Greeting", loaded.Title)
	assert.Len(t, loaded.Turns, 4)
}

// =============================================================================
// SAVE / LOAD TESTS
// =============================================================================

func TestConversationStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	turns := sampleTurns()

	_, err := store.Save(ctx, "chat-1", "Greeting", turns)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", loaded.ID)
	assert.Equal(t, "Greeting", loaded.Title)
	require.Len(t, loaded.Turns, len(turns))

	for i, got := range loaded.Turns {
		assert.Equal(t, i, got.Index)
		assert.Equal(t, turns[i].Role, got.Role)
		assert.Equal(t, turns[i].Content, got.Content)
		assert.Equal(t, turns[i].Model, got.Model)
	}
}

func TestConversationStore_SaveEmptyTurns(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, "chat-empty", model.SentinelTitle, nil)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, "chat-empty")
	require.NoError(t, err, "an empty conversation is distinct from a missing one")
	assert.Empty(t, loaded.Turns)
	assert.NotNil(t, loaded.Turns)
}

func TestConversationStore_SaveReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, "chat-1", "First", sampleTurns())
	require.NoError(t, err)

	second := []model.Turn{
		model.NewUserTurn("Only this", model.ModelGPT4o),
		model.NewAssistantTurn("and this", model.ModelGPT4o),
	}
	_, err = store.Save(ctx, "chat-1", "Second", second)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "Second", loaded.Title)
	require.Len(t, loaded.Turns, 2, "no residual turns from the first save")
	assert.Equal(t, "Only this", loaded.Turns[0].Content)
	assert.Equal(t, "and this", loaded.Turns[1].Content)

	metas, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, metas, 1, "replace must not duplicate the chat row")
}

func TestConversationStore_GaplessIndices(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Indices on the input are ignored; position wins.
	turns := []model.Turn{
		{Index: 7, Role: model.RoleUser, Content: "a", Model: model.ModelGPT4o},
		{Index: 3, Role: model.RoleAssistant, Content: "b", Model: model.ModelGPT4o},
		{Index: 3, Role: model.RoleUser, Content: "c", Model: model.ModelGPT4o},
	}
	_, err := store.Save(ctx, "chat-gap", "t", turns)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, "chat-gap")
	require.NoError(t, err)
	for i, turn := range loaded.Turns {
		assert.Equal(t, i, turn.Index)
	}
	assert.Equal(t, []string{"a", "b", "c"}, []string{
		loaded.Turns[0].Content, loaded.Turns[1].Content, loaded.Turns[2].Content,
	})
}

func TestConversationStore_ConversationsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, "a", "A", sampleTurns())
	require.NoError(t, err)
	_, err = store.Save(ctx, "b", "B", sampleTurns()[:1])
	require.NoError(t, err)

	a, err := store.Load(ctx, "a")
	require.NoError(t, err)
	b, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, a.Turns, 4)
	assert.Len(t, b.Turns, 1)
}

func TestConversationStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Load(context.Background(), "nonexistent-id")
	assert.Nil(t, loaded)
	require.True(t, errors.Is(err, ErrConversationNotFound), "got %v", err)

	var se *StorageError
	assert.False(t, errors.As(err, &se), "not-found is not a storage failure")
}

func TestConversationStore_SaveRejectsInvalidTurns(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name  string
		turns []model.Turn
		want  error
	}{
		{"bad role", []model.Turn{{Role: "system", Content: "x", Model: model.ModelGPT4o}}, model.ErrInvalidRole},
		{"missing model", []model.Turn{{Role: model.RoleUser, Content: "x"}}, model.ErrMissingModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, "chat-bad", "t", tt.turns)
			var se *StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "save", se.Op)
			assert.ErrorIs(t, err, tt.want)

			_, err = store.Load(ctx, "chat-bad")
			assert.ErrorIs(t, err, ErrConversationNotFound, "nothing may be written")
		})
	}
}

func TestConversationStore_InvalidSaveKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, "chat-1", "Kept", sampleTurns())
	require.NoError(t, err)

	bad := append(sampleTurns(), model.Turn{Role: "tool", Content: "x", Model: model.ModelGPT4o})
	_, err = store.Save(ctx, "chat-1", "Lost", bad)
	require.Error(t, err)

	loaded, err := store.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "Kept", loaded.Title)
	assert.Len(t, loaded.Turns, 4)
}

func TestConversationStore_EmptyID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, "", "t", sampleTurns())
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = store.Load(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestConversationStore_LoadRejectsMalformedRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, "chat-1", "t", sampleTurns()[:1])
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, `UPDATE messages SET role = 'system' WHERE chat_id = 'chat-1'`)
	require.NoError(t, err)

	_, err = store.Load(ctx, "chat-1")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, model.ErrInvalidRole)
}

func TestConversationStore_SaveCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "chat-1", "t", sampleTurns())
	var se *StorageError
	require.ErrorAs(t, err, &se)

	_, err = store.Load(context.Background(), "chat-1")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversationStore_SaveRecordsTimestamp(t *testing.T) {
	ctx := context.Background()
	fixed := time.Unix(1712345678, 999)
	store, err := Open(ctx, Options{
		Path: filepath.Join(t.TempDir(), "chat.db"),
		Now:  func() time.Time { return fixed },
	})
	require.NoError(t, err)
	defer store.Close()

	updatedAt, err := store.Save(ctx, "chat-1", "t", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1712345678), updatedAt.Unix())

	loaded, err := store.Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.True(t, loaded.UpdatedAt.Equal(time.Unix(1712345678, 0)))
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestConversationStore_ListRecentAscending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []string{"A", "B", "C"} {
		_, err := store.Save(ctx, id, "title "+id, sampleTurns()[:2])
		require.NoError(t, err)
	}

	metas, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, "A", metas[0].ID)
	assert.Equal(t, "B", metas[1].ID)
	assert.Equal(t, "C", metas[2].ID)
	assert.Equal(t, "title C", metas[2].Title)

	// Re-saving A moves it to the end.
	_, err = store.Save(ctx, "A", "title A", sampleTurns())
	require.NoError(t, err)
	metas, err = store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "B", metas[0].ID)
	assert.Equal(t, "A", metas[2].ID)
}

func TestConversationStore_ListRecentLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 12; i++ {
		_, err := store.Save(ctx, string(rune('a'+i)), "t", nil)
		require.NoError(t, err)
	}

	metas, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, metas, 10)
	assert.Equal(t, "a", metas[0].ID)
	assert.Equal(t, "j", metas[9].ID)

	metas, err = store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestConversationStore_ListRecentTiesOrderedByID(t *testing.T) {
	ctx := context.Background()
	fixed := time.Unix(1700000000, 0)
	store, err := Open(ctx, Options{
		Path: filepath.Join(t.TempDir(), "chat.db"),
		Now:  func() time.Time { return fixed },
	})
	require.NoError(t, err)
	defer store.Close()

	for _, id := range []string{"c", "a", "b"} {
		_, err := store.Save(ctx, id, id, nil)
		require.NoError(t, err)
	}

	metas, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{metas[0].ID, metas[1].ID, metas[2].ID})
}

func TestStoredConversation_ToConversation(t *testing.T) {
	stored := &StoredConversation{ID: "x", Title: "T", Turns: model.Reindex(sampleTurns())}
	conv := stored.ToConversation()
	conv.Turns[0].Content = "changed"
	assert.Equal(t, "Hello", stored.Turns[0].Content)
	assert.Equal(t, "T", conv.Title)
}
