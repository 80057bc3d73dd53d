// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/aloha-tui/internal/config"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Name is config.ThemeLight or config.ThemeDark.
	Name         string
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemSelected lipgloss.Style
	SidebarItemActive   lipgloss.Style
	SidebarTime         lipgloss.Style
	SidebarEmpty        lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderModel lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserHeader      lipgloss.Style
	AssistantHeader lipgloss.Style
	SystemHeader    lipgloss.Style
	Timestamp       lipgloss.Style
	MessageBody     lipgloss.Style
	ThinkingHeader  lipgloss.Style
	ThinkingBody    lipgloss.Style

	EmptyTitle    lipgloss.Style
	EmptySubtitle lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	Input        lipgloss.Style
	InputFocused lipgloss.Style
	InputBlocked lipgloss.Style
	Spinner      lipgloss.Style

	// ==========================================================================
	// STATUS AND FEEDBACK STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Hint         lipgloss.Style
	ErrorText    lipgloss.Style
	WarningText  lipgloss.Style
	SuccessText  lipgloss.Style

	// ==========================================================================
	// LIST AND FORM STYLES
	// ==========================================================================

	ScreenTitle      lipgloss.Style
	SectionTitle     lipgloss.Style
	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListItemDim      lipgloss.Style
	Badge            lipgloss.Style
	ToggleOn         lipgloss.Style
	ToggleOff        lipgloss.Style
	Panel            lipgloss.Style
}

// NewTheme creates a theme for name. An unknown name follows the terminal
// background.
func NewTheme(name string) *Theme {
	isDark := termenv.HasDarkBackground()
	switch name {
	case config.ThemeDark:
		isDark = true
	case config.ThemeLight:
		isDark = false
	default:
		name = config.ThemeLight
		if isDark {
			name = config.ThemeDark
		}
	}

	t := &Theme{
		Name:         name,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.apply()
	return t
}

// apply pins lipgloss's adaptive colours to the theme and builds the styles.
func (t *Theme) apply() {
	lipgloss.SetHasDarkBackground(t.IsDark)
	t.initStyles()
}

// GlamourStyle names the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Ocean).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.SidebarItemActive = lipgloss.NewStyle().
		Foreground(Ocean)

	t.SidebarTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SidebarEmpty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Header
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.HeaderModel = lipgloss.NewStyle().
		Foreground(Lagoon)

	// Messages
	t.UserHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserAccent)

	t.AssistantHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(AssistantAccent)

	t.SystemHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(SystemAccent)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.MessageBody = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ThinkingHeader = lipgloss.NewStyle().
		Foreground(ThinkingFg).
		Italic(true)

	t.ThinkingBody = lipgloss.NewStyle().
		Foreground(ThinkingFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)

	t.EmptyTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Ocean)

	t.EmptySubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Input
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputFocused = t.Input.
		BorderForeground(Ocean)

	t.InputBlocked = t.Input.
		BorderForeground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Sunset)

	// Status and feedback
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Ocean).
		Background(SurfaceDim)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorText = lipgloss.NewStyle().
		Bold(true).
		Foreground(Hibiscus)

	t.WarningText = lipgloss.NewStyle().
		Foreground(Sunset)

	t.SuccessText = lipgloss.NewStyle().
		Foreground(Palm)

	// Lists and forms
	t.ScreenTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Ocean).
		MarginBottom(1)

	t.SectionTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary).
		MarginTop(1)

	t.ListItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.ListItemSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(1).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(Ocean)

	t.ListItemDim = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(2)

	t.Badge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Lagoon).
		Padding(0, 1)

	t.ToggleOn = lipgloss.NewStyle().
		Bold(true).
		Foreground(Palm)

	t.ToggleOff = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 2)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)

// SidebarWidth returns the sidebar width for the layout, or 0 when the
// terminal is too narrow to show it.
func (t *Theme) SidebarWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return 0
	case LayoutMedium:
		return 24
	default:
		return 32
	}
}

// Toggle renders a boolean setting value.
func (t *Theme) Toggle(on bool) string {
	if on {
		return t.ToggleOn.Render("[on] ")
	}
	return t.ToggleOff.Render("[off]")
}
