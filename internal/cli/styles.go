// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aloha-tui/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

// cliRenderer renders CLI output with the profile picked from NO_COLOR,
// FORCE_COLOR and TTY detection. The TUI keeps the default renderer.
var cliRenderer = newCLIRenderer()

func newCLIRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(os.Stdout)
	r.SetColorProfile(GetColorProfile())
	return r
}

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = cliRenderer.NewStyle().
			Bold(true).
			Foreground(styles.Ocean)

	// LabelStyle is used for field labels
	LabelStyle = cliRenderer.NewStyle().
			Foreground(styles.TextSecondary).
			Width(14)

	// UserStyle heads user turns in transcripts
	UserStyle = cliRenderer.NewStyle().
			Bold(true).
			Foreground(styles.UserAccent)

	// AssistantStyle heads model turns in transcripts
	AssistantStyle = cliRenderer.NewStyle().
			Bold(true).
			Foreground(styles.AssistantAccent)

	SuccessStyle = cliRenderer.NewStyle().
			Foreground(styles.Palm).
			Bold(true)

	ErrorStyle = cliRenderer.NewStyle().
			Foreground(styles.Hibiscus).
			Bold(true)

	WarningStyle = cliRenderer.NewStyle().
			Foreground(styles.Sunset)

	// DimStyle is used for secondary information and hints
	DimStyle = cliRenderer.NewStyle().
			Foreground(styles.TextMuted)

	// ThinkingStyle is used for reasoning text
	ThinkingStyle = cliRenderer.NewStyle().
			Italic(true).
			Foreground(styles.ThinkingFg)
)

// separator returns a dim horizontal rule of width columns.
func separator(width int) string {
	return DimStyle.Render(strings.Repeat("─", max(width, 1)))
}
