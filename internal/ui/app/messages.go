// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/storage"
)

// ChatsLoadedMsg carries the sidebar list.
type ChatsLoadedMsg struct {
	Chats []storage.ChatSummary
	Err   error
}

// ChatOpenedMsg reports that a chat became current.
type ChatOpenedMsg struct {
	ID  string
	Err error
}

// ChatDeletedMsg reports a finished delete.
type ChatDeletedMsg struct {
	ID  string
	Err error
}

// ConfigChangedMsg carries a config reloaded after an external edit.
type ConfigChangedMsg struct {
	Config *config.Config
}

// =============================================================================
// COMMANDS
// =============================================================================

func loadChatsCmd(store ChatStore) tea.Cmd {
	return func() tea.Msg {
		chats, err := store.List(context.Background())
		return ChatsLoadedMsg{Chats: chats, Err: err}
	}
}

func openChatCmd(opener chatOpener, id string) tea.Cmd {
	return func() tea.Msg {
		return ChatOpenedMsg{ID: id, Err: opener.Open(context.Background(), id)}
	}
}

func deleteChatCmd(store ChatStore, id string) tea.Cmd {
	return func() tea.Msg {
		return ChatDeletedMsg{ID: id, Err: store.Delete(context.Background(), id)}
	}
}

// waitConfig delivers the next reloaded config. It returns nil when the
// channel is closed, which ends the loop.
func waitConfig(ch <-chan *config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return ConfigChangedMsg{Config: cfg}
	}
}

type chatOpener interface {
	Open(ctx context.Context, id string) error
}
