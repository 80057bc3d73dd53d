// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the aloha TUI.

# Color System (colors.go)

All colours are lipgloss AdaptiveColor pairs. The light or dark side is chosen
by the user's theme setting rather than terminal detection; NewTheme pins
lipgloss to that choice.

# Themes (theme.go)

	theme := styles.NewTheme(cfg.Settings.Theme)
	header := theme.UserHeader.Render("You")

Switching the theme means building a new Theme. GlamourStyle names the
matching markdown style for rendered replies.
*/
package styles
