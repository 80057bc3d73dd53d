// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aloha-tui/internal/ui/styles"
	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status is the application state shown at the left of the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusGenerating
	StatusPulling
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusGenerating:
		return "Generating"
	case StatusPulling:
		return "Pulling"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon uses shapes alongside colour so states stay distinct without colour.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusGenerating, StatusPulling:
		return styles.StatusIndicators.Active
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// statusBar is the single line at the bottom of the screen.
type statusBar struct {
	Status    Status
	ModelName string
	Message   string
	Width     int
	Bindings  []key.Binding
}

// View renders the bar. Shortcuts are dropped first when space runs out,
// then the message is truncated.
func (s statusBar) View(theme *styles.Theme) string {
	modelName := s.ModelName
	if modelName == "" {
		modelName = "no model"
	}
	left := s.Status.Icon() + " " + s.Status.String() + " · " + modelName

	var msg string
	if s.Message != "" {
		style := theme.ShortcutDesc
		if s.Status == StatusError {
			style = theme.ErrorText.Background(theme.StatusBar.GetBackground())
		}
		msg = style.Render(s.Message)
	}

	var shortcuts []string
	for _, b := range s.Bindings {
		h := b.Help()
		shortcuts = append(shortcuts, theme.ShortcutKey.Render(h.Key)+theme.ShortcutDesc.Render(" "+h.Desc))
	}
	right := strings.Join(shortcuts, theme.ShortcutDesc.Render("  "))

	inner := max(s.Width-2, 1)
	if lipgloss.Width(left)+lipgloss.Width(msg)+lipgloss.Width(right)+4 > inner {
		right = ""
	}
	if msg != "" && lipgloss.Width(left)+lipgloss.Width(msg)+2 > inner {
		msg = theme.ShortcutDesc.Render(util.TruncateWidth(s.Message, max(inner-lipgloss.Width(left)-2, 1)))
	}

	line := left
	if msg != "" {
		line += "  " + msg
	}
	if right != "" {
		gap := max(inner-lipgloss.Width(line)-lipgloss.Width(right), 1)
		line += strings.Repeat(" ", gap) + right
	}
	return theme.StatusBar.Width(max(s.Width, 1)).Render(line)
}
