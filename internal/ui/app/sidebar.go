// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/aloha-tui/internal/storage"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// SIDEBAR
// =============================================================================

// sidebar lists saved chats, most recently updated first.
type sidebar struct {
	chats   []storage.ChatSummary
	cursor  int
	offset  int
	focused bool
	err     error
}

func (s *sidebar) setChats(chats []storage.ChatSummary) {
	s.chats = chats
	if s.cursor >= len(chats) {
		s.cursor = max(len(chats)-1, 0)
	}
}

func (s *sidebar) move(delta int) {
	if len(s.chats) == 0 {
		return
	}
	s.cursor = min(max(s.cursor+delta, 0), len(s.chats)-1)
}

// selectID moves the cursor to the chat with id, if listed.
func (s *sidebar) selectID(id string) {
	for i, c := range s.chats {
		if c.ID == id {
			s.cursor = i
			return
		}
	}
}

func (s sidebar) selected() (storage.ChatSummary, bool) {
	if s.cursor < 0 || s.cursor >= len(s.chats) {
		return storage.ChatSummary{}, false
	}
	return s.chats[s.cursor], true
}

func (s *sidebar) view(theme *styles.Theme, width, height int, activeID string, now time.Time) string {
	// Sidebar style pads one column each side and draws a right border.
	inner := max(width-3, 4)
	var lines []string
	lines = append(lines, theme.SidebarTitle.Render("Chats"))

	switch {
	case s.err != nil:
		lines = append(lines, theme.ErrorText.Render(runewidth.Truncate("Failed to load chats", inner, "…")))
	case len(s.chats) == 0:
		lines = append(lines, theme.SidebarEmpty.Render("No chats yet"))
	default:
		// Title row plus time row per chat, after the title and its margin.
		visible := max((height-2)/2, 1)
		if s.cursor < s.offset {
			s.offset = s.cursor
		}
		if s.cursor >= s.offset+visible {
			s.offset = s.cursor - visible + 1
		}
		end := min(s.offset+visible, len(s.chats))
		for i := s.offset; i < end; i++ {
			c := s.chats[i]
			title := runewidth.Truncate(c.Title, inner, "…")
			title = runewidth.FillRight(title, inner)

			style := theme.SidebarItem
			switch {
			case i == s.cursor && s.focused:
				style = theme.SidebarItemSelected
			case c.ID == activeID:
				style = theme.SidebarItemActive
			}
			lines = append(lines, style.Render(title))
			lines = append(lines, theme.SidebarTime.Render(util.RelativeTime(c.UpdatedAt, now)))
		}
	}

	body := strings.Join(lines, "\n")
	return theme.Sidebar.
		Width(max(width-1, 1)).
		Height(max(height, 1)).
		MaxHeight(max(height, 1)).
		Render(lipgloss.NewStyle().MaxWidth(inner + 2).Render(body))
}
