// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the conversation view of the aloha TUI.

# Model (model.go)

Model renders the current chat of a session.Manager and drives sends:

  - Enter sends the trimmed input; Alt+Enter inserts a newline
  - sending is disabled while a reply is pending; Esc aborts it
  - Ctrl+Y copies the last reply to the clipboard
  - Ctrl+T expands or collapses reasoning sections

# Streaming (streaming.go)

The send runs in a tea.Cmd goroutine that writes fragments into a
StreamingBuffer. A ~30fps StreamTickMsg loop drains the buffer into the view,
and a SendDoneMsg replaces the view with the persisted chat.

# View (view.go)

Replies are rendered as markdown with glamour; reasoning appears in a
collapsible "Thinking" section. An empty chat shows a welcome screen.
*/
package chat
