// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aloha-tui/internal/model"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "aloha.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newChat(title string, updated time.Time, msgs ...model.Message) *model.Chat {
	chat := model.NewChat(updated)
	chat.Title = title
	chat.Messages = msgs
	return chat
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen_CreatesSchema(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	v, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "aloha.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, newChat("kept", base, model.NewUserMessage("hi", base))))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].Title)
	assert.Equal(t, 1, list[0].MessageCount)
}

func TestOpen_PragmasOnEveryConnection(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Without idle connections every query runs on a fresh one.
	store.db.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var fk int
		require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 1, fk, "foreign_keys on connection %d", i)

		var mode string
		require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
	}

	chat := newChat("doomed", base, model.NewUserMessage("hi", base))
	require.NoError(t, store.Create(ctx, chat))
	require.NoError(t, store.Delete(ctx, chat.ID))

	var orphans int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&orphans))
	assert.Zero(t, orphans, "messages cascade with their chat")
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

// =============================================================================
// CRUD TESTS
// =============================================================================

func TestStore_CreateAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("New Chat", base,
		model.NewUserMessage("What is Go?", base),
		model.NewAssistantMessage("A programming language.", "llama3.2", base.Add(time.Second)),
	)
	require.NoError(t, store.Create(ctx, chat))

	got, err := store.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, got.ID)
	assert.Equal(t, "New Chat", got.Title)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.True(t, got.UpdatedAt.Equal(base))
	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "What is Go?", got.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, got.Messages[1].Role)
	assert.Equal(t, "llama3.2", got.Messages[1].Model)
	assert.True(t, got.Messages[1].Timestamp.Equal(base.Add(time.Second)))
}

func TestStore_CreateDuplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("a", base)
	require.NoError(t, store.Create(ctx, chat))
	assert.Error(t, store.Create(ctx, chat))
}

func TestStore_GetNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestStore_GetEmptyChat(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("empty", base)
	require.NoError(t, store.Create(ctx, chat))

	got, err := store.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestStore_AppendMessages(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("New Chat", base)
	require.NoError(t, store.Create(ctx, chat))

	later := base.Add(time.Minute)
	require.NoError(t, store.AppendMessages(ctx, chat.ID, later,
		model.NewUserMessage("one", later),
		model.NewAssistantMessage("two", "m", later)))
	require.NoError(t, store.AppendMessages(ctx, chat.ID, later.Add(time.Minute),
		model.NewUserMessage("three", later)))

	got, err := store.Get(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, []string{"one", "two", "three"},
		[]string{got.Messages[0].Content, got.Messages[1].Content, got.Messages[2].Content})
	assert.True(t, got.UpdatedAt.Equal(later.Add(time.Minute)))

	err = store.AppendMessages(ctx, "missing", later, model.NewUserMessage("x", later))
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestStore_Put(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("New Chat", base, model.NewUserMessage("a", base), model.NewUserMessage("b", base))
	require.NoError(t, store.Create(ctx, chat))

	chat.Title = "Renamed"
	chat.Messages = chat.Messages[:1]
	chat.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, store.Put(ctx, chat))

	got, err := store.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Len(t, got.Messages, 1)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))

	assert.ErrorIs(t, store.Put(ctx, newChat("ghost", base)), ErrChatNotFound)
}

func TestStore_Rename(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("New Chat", base)
	require.NoError(t, store.Create(ctx, chat))
	require.NoError(t, store.Rename(ctx, chat.ID, "Go questions"))

	got, err := store.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go questions", got.Title)
	assert.True(t, got.UpdatedAt.Equal(base), "rename does not touch updatedAt")

	assert.ErrorIs(t, store.Rename(ctx, "missing", "x"), ErrChatNotFound)
}

func TestStore_DeleteCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("bye", base, model.NewUserMessage("hello", base))
	require.NoError(t, store.Create(ctx, chat))
	require.NoError(t, store.Delete(ctx, chat.ID))

	_, err := store.Get(ctx, chat.ID)
	assert.ErrorIs(t, err, ErrChatNotFound)

	// A new chat reusing the id must not inherit orphaned messages.
	again := newChat("again", base)
	again.ID = chat.ID
	require.NoError(t, store.Create(ctx, again))
	got, err := store.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)

	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrChatNotFound)
}

func TestStore_ListOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := newChat("old", base)
	mid := newChat("mid", base.Add(time.Hour), model.NewUserMessage("x", base))
	recent := newChat("recent", base.Add(2*time.Hour))
	for _, c := range []*model.Chat{mid, old, recent} {
		require.NoError(t, store.Create(ctx, c))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"recent", "mid", "old"}, []string{list[0].Title, list[1].Title, list[2].Title})
	assert.Equal(t, 1, list[1].MessageCount)

	// Appending to the oldest chat moves it to the top.
	require.NoError(t, store.AppendMessages(ctx, old.ID, base.Add(3*time.Hour), model.NewUserMessage("bump", base)))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", list[0].Title)
}

func TestStore_Search(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newChat("Café recommendations", base)))
	require.NoError(t, store.Create(ctx, newChat("Go generics", base.Add(time.Minute),
		model.NewUserMessage("How do TYPE parameters work?", base))))
	require.NoError(t, store.Create(ctx, newChat("Unrelated", base.Add(2*time.Minute))))

	tests := []struct {
		query string
		want  []string
	}{
		{"cafe", []string{"Café recommendations"}},
		{"CAFÉ", []string{"Café recommendations"}},
		{"type param", []string{"Go generics"}},
		{"generics", []string{"Go generics"}},
		{"nothing matches this", nil},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			results, err := store.Search(ctx, tc.query)
			require.NoError(t, err)
			var titles []string
			for _, r := range results {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tc.want, titles)
		})
	}

	all, err := store.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_ClearAndCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Create(ctx, newChat("c", base, model.NewUserMessage("m", base))))
	}
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cleared, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_Exists(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := newChat("x", base)
	require.NoError(t, store.Create(ctx, chat))

	ok, err := store.Exists(ctx, chat.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
