// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
)

// =============================================================================
// MODEL SELECTOR
// =============================================================================

// NoModelsText is shown when nothing is installed.
const NoModelsText = "No models installed."

type selectorKeys struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Manager key.Binding
	Close   key.Binding
}

func defaultSelectorKeys() selectorKeys {
	return selectorKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		Select:  key.NewBinding(key.WithKeys("enter")),
		Manager: key.NewBinding(key.WithKeys("m")),
		Close:   key.NewBinding(key.WithKeys("esc", "q")),
	}
}

// Selector is the overlay that picks the active model.
type Selector struct {
	theme   *styles.Theme
	keys    selectorKeys
	client  Client
	current string

	models  []ollama.ModelInfo
	cursor  int
	loading bool
	err     error
	width   int
}

// NewSelector creates a selector highlighting current.
func NewSelector(theme *styles.Theme, client Client, current string) Selector {
	return Selector{
		theme:   theme,
		keys:    defaultSelectorKeys(),
		client:  client,
		current: current,
		loading: true,
	}
}

// Init loads the installed models.
func (s Selector) Init() tea.Cmd {
	return LoadCmd(s.client)
}

// SetWidth sets the render width.
func (s *Selector) SetWidth(w int) {
	s.width = w
}

// SetTheme swaps the theme.
func (s *Selector) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// Update handles selector input.
func (s Selector) Update(msg tea.Msg) (Selector, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		s.loading = false
		s.err = msg.Err
		s.models = msg.Models
		s.cursor = 0
		for i, m := range s.models {
			if m.Name == s.current {
				s.cursor = i
			}
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keys.Close):
			return s, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, s.keys.Manager):
			return s, func() tea.Msg { return OpenManagerMsg{} }
		case key.Matches(msg, s.keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, s.keys.Down):
			if s.cursor < len(s.models)-1 {
				s.cursor++
			}
		case key.Matches(msg, s.keys.Select):
			if len(s.models) == 0 {
				return s, nil
			}
			name := s.models[s.cursor].Name
			return s, func() tea.Msg { return SelectedMsg{Name: name} }
		}
	}
	return s, nil
}

// View renders the selector.
func (s Selector) View() string {
	var sb strings.Builder
	sb.WriteString(s.theme.ScreenTitle.Render("Select a model"))
	sb.WriteString("\n")

	switch {
	case s.loading:
		sb.WriteString(s.theme.Hint.Render("Loading models..."))
	case s.err != nil:
		sb.WriteString(s.theme.ErrorText.Render(LoadFailedText))
	case len(s.models) == 0:
		sb.WriteString(s.theme.WarningText.Render(NoModelsText))
		sb.WriteString("\n")
		sb.WriteString(s.theme.Hint.Render("Press m to open the model manager and install one."))
	default:
		for i, m := range s.models {
			line := m.Name
			if m.Name == s.current {
				line += " " + s.theme.SuccessText.Render(styles.StatusIndicators.Active)
			}
			if i == s.cursor {
				sb.WriteString(s.theme.ListItemSelected.Render(line))
			} else {
				sb.WriteString(s.theme.ListItem.Render(line))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(s.theme.Hint.Render("Enter select · m manage models · Esc close"))
	}

	panel := s.theme.Panel
	if s.width > 0 {
		panel = panel.Width(min(s.width-4, 60))
	}
	return panel.Render(sb.String())
}
