// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for aloha.
//
// Chats and their messages live in a single SQLite database opened through
// the pure-Go modernc.org/sqlite driver, so no cgo is needed.
//
// # Key Types
//
//   - Store: the chat store
//   - ChatSummary: lightweight chat metadata for listing
//
// # Usage
//
//	store, err := storage.Open(ctx, cfg.Storage.Database)
//	defer store.Close()
//
//	err = store.Create(ctx, model.NewChat(time.Now()))
//	summaries, err := store.List(ctx)
//	chat, err := store.Get(ctx, summaries[0].ID)
//
// Search is case- and accent-insensitive over titles and message content:
//
//	results, err := store.Search(ctx, "cafe")
//
// # Storage Location
//
// The database lives at ~/.aloha/aloha.db unless [storage] database says
// otherwise.
package storage
