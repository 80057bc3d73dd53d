// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides the settings screen of the aloha TUI.
// Every change is saved as soon as it is made.
package settings

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
)

// SaveFunc applies a patch, persists it and returns the resulting settings.
type SaveFunc func(config.SettingsPatch) (config.Settings, error)

// ChangedMsg reports saved settings to the parent.
type ChangedMsg struct {
	Settings config.Settings
}

// CloseMsg asks the parent to leave the settings screen.
type CloseMsg struct{}

// =============================================================================
// ITEMS
// =============================================================================

type item int

const (
	itemTheme item = iota
	itemSound
	itemMessageSound
	itemTypingSound
	itemAutoScroll
	itemEnableSystemPrompt
	itemSystemPrompt
	itemTitleMethod
)

func (i item) label() string {
	switch i {
	case itemTheme:
		return "Theme"
	case itemSound:
		return "Sound effects"
	case itemMessageSound:
		return "Message sound"
	case itemTypingSound:
		return "Typing sound"
	case itemAutoScroll:
		return "Auto-scroll"
	case itemEnableSystemPrompt:
		return "Use system prompt"
	case itemSystemPrompt:
		return "System prompt"
	case itemTitleMethod:
		return "Chat titles"
	}
	return ""
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Back   key.Binding
	Save   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k")),
		Down:   key.NewBinding(key.WithKeys("down", "j")),
		Toggle: key.NewBinding(key.WithKeys("enter", " ")),
		Back:   key.NewBinding(key.WithKeys("esc", "q")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s")),
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the settings screen.
type Model struct {
	theme    *styles.Theme
	keys     keyMap
	save     SaveFunc
	settings config.Settings

	cursor  int
	editing bool
	editor  textarea.Model

	err    error
	notice string
	width  int
}

// New creates the settings screen for settings.
func New(theme *styles.Theme, settings config.Settings, save SaveFunc) Model {
	ed := textarea.New()
	ed.Placeholder = "You are a helpful assistant."
	ed.ShowLineNumbers = false
	ed.CharLimit = 0
	ed.SetHeight(6)

	return Model{
		theme:    theme,
		keys:     defaultKeys(),
		save:     save,
		settings: settings,
		editor:   ed,
	}
}

// Settings returns the settings shown on screen.
func (m Model) Settings() config.Settings {
	return m.settings
}

// Editing reports whether the system prompt editor is open.
func (m Model) Editing() bool {
	return m.editing
}

// SetTheme swaps the theme.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
}

// SetSettings replaces the settings shown, e.g. after an external edit.
func (m *Model) SetSettings(s config.Settings) {
	m.settings = s
	m.clampCursor()
}

// SetWidth sets the render width.
func (m *Model) SetWidth(w int) {
	m.width = w
	m.editor.SetWidth(max(min(w-8, 80), 20))
}

// visibleItems lists the rows on screen. The per-event sound toggles only
// appear while sounds are on.
func (m Model) visibleItems() []item {
	items := []item{itemTheme, itemSound}
	if m.settings.SoundEnabled {
		items = append(items, itemMessageSound, itemTypingSound)
	}
	return append(items, itemAutoScroll, itemEnableSystemPrompt, itemSystemPrompt, itemTitleMethod)
}

func (m *Model) clampCursor() {
	if n := len(m.visibleItems()); m.cursor >= n {
		m.cursor = n - 1
	}
}

// Update handles settings input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.editing {
		return m.updateEditor(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	items := m.visibleItems()
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Toggle):
		return m.activate(items[m.cursor])
	}
	return m, nil
}

func (m Model) activate(it item) (Model, tea.Cmd) {
	s := m.settings
	var patch config.SettingsPatch

	switch it {
	case itemTheme:
		next := config.ThemeDark
		if s.Theme == config.ThemeDark {
			next = config.ThemeLight
		}
		patch.Theme = &next
	case itemSound:
		patch.SoundEnabled = config.Ptr(!s.SoundEnabled)
	case itemMessageSound:
		patch.MessageSound = config.Ptr(!s.MessageSound)
	case itemTypingSound:
		patch.TypingSound = config.Ptr(!s.TypingSound)
	case itemAutoScroll:
		patch.AutoScroll = config.Ptr(!s.AutoScroll)
	case itemEnableSystemPrompt:
		patch.EnableSystemPrompt = config.Ptr(!s.EnableSystemPrompt)
	case itemTitleMethod:
		next := config.TitleMethodLLM
		if s.TitleGenerationMethod == config.TitleMethodLLM {
			next = config.TitleMethodPrompt
		}
		patch.TitleGenerationMethod = &next
	case itemSystemPrompt:
		m.editing = true
		m.editor.SetValue(s.SystemPrompt)
		return m, m.editor.Focus()
	}
	return m.apply(patch)
}

func (m Model) updateEditor(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Save):
			m.editing = false
			m.editor.Blur()
			return m.apply(config.SettingsPatch{SystemPrompt: config.Ptr(m.editor.Value())})
		case keyMsg.Type == tea.KeyEsc:
			m.editing = false
			m.editor.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) apply(patch config.SettingsPatch) (Model, tea.Cmd) {
	saved, err := m.save(patch)
	if err != nil {
		m.err = err
		m.notice = ""
		return m, nil
	}
	m.settings = saved
	m.err = nil
	m.notice = "Saved"
	m.clampCursor()
	return m, func() tea.Msg { return ChangedMsg{Settings: saved} }
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) value(it item) string {
	s := m.settings
	switch it {
	case itemTheme:
		return s.Theme
	case itemSound:
		return m.theme.Toggle(s.SoundEnabled)
	case itemMessageSound:
		return m.theme.Toggle(s.MessageSound)
	case itemTypingSound:
		return m.theme.Toggle(s.TypingSound)
	case itemAutoScroll:
		return m.theme.Toggle(s.AutoScroll)
	case itemEnableSystemPrompt:
		return m.theme.Toggle(s.EnableSystemPrompt)
	case itemSystemPrompt:
		p := strings.TrimSpace(s.SystemPrompt)
		if p == "" {
			return m.theme.Hint.Render("(empty)")
		}
		first, _, _ := strings.Cut(p, "\n")
		if len([]rune(first)) > 40 {
			first = string([]rune(first)[:40]) + "…"
		}
		return first
	case itemTitleMethod:
		if s.TitleGenerationMethod == config.TitleMethodLLM {
			return "generated by the model"
		}
		return "from the first prompt"
	}
	return ""
}

// View renders the settings screen.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.theme.ScreenTitle.Render("Settings"))
	sb.WriteString("\n")

	for i, it := range m.visibleItems() {
		label := it.label()
		if it == itemMessageSound || it == itemTypingSound {
			label = "  " + label
		}
		line := fmt.Sprintf("%-20s %s", label, m.value(it))
		if i == m.cursor && !m.editing {
			sb.WriteString(m.theme.ListItemSelected.Render(line))
		} else {
			sb.WriteString(m.theme.ListItem.Render(line))
		}
		sb.WriteString("\n")
	}

	if m.editing {
		sb.WriteString("\n")
		sb.WriteString(m.theme.SectionTitle.Render("System prompt"))
		sb.WriteString("\n")
		sb.WriteString(m.editor.View())
		sb.WriteString("\n")
		sb.WriteString(m.theme.Hint.Render("Ctrl+S save · Esc discard"))
		return sb.String()
	}

	sb.WriteString("\n")
	switch {
	case m.err != nil:
		sb.WriteString(m.theme.ErrorText.Render(styles.StatusIndicators.Error + " " + m.err.Error()))
	case m.notice != "":
		sb.WriteString(m.theme.SuccessText.Render(m.notice))
	default:
		sb.WriteString(m.theme.Hint.Render("Enter/Space change · Esc back"))
	}
	return sb.String()
}
