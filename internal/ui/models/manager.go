// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aloha-tui/internal/catalog"
	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// MODEL MANAGER SCREEN
// =============================================================================

type managerKeys struct {
	Up        key.Binding
	Down      key.Binding
	Install   key.Binding
	Delete    key.Binding
	Confirm   key.Binding
	Search    key.Binding
	Refresh   key.Binding
	CancelBtn key.Binding
	Back      key.Binding
}

func defaultManagerKeys() managerKeys {
	return managerKeys{
		Up:        key.NewBinding(key.WithKeys("up", "k")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
		Install:   key.NewBinding(key.WithKeys("enter", "i")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete")),
		Confirm:   key.NewBinding(key.WithKeys("y")),
		Search:    key.NewBinding(key.WithKeys("/")),
		Refresh:   key.NewBinding(key.WithKeys("r")),
		CancelBtn: key.NewBinding(key.WithKeys("x")),
		Back:      key.NewBinding(key.WithKeys("esc", "q")),
	}
}

type rowKind int

const (
	rowInstalled rowKind = iota
	rowAvailable
)

type row struct {
	kind rowKind
	name string
	size int64
}

// Manager is the model manager screen.
type Manager struct {
	theme       *styles.Theme
	keys        managerKeys
	client      Client
	recommended []string

	installed []ollama.ModelInfo
	rows      []row
	cursor    int
	loading   bool
	loadErr   error

	search    textinput.Model
	searching bool

	confirmDelete string
	deleting      string

	pulling      string
	pullStatus   string
	pullFraction float64
	pullCancel   context.CancelFunc
	bar          progress.Model

	err    error
	notice string
	width  int
	height int
}

// NewManager creates the manager screen. recommended lists the catalogue's
// "family:variant" names.
func NewManager(theme *styles.Theme, client Client, recommended []string) Manager {
	ti := textinput.New()
	ti.Prompt = "Search: "
	ti.Placeholder = "filter available models"
	ti.CharLimit = 64

	return Manager{
		theme:       theme,
		keys:        defaultManagerKeys(),
		client:      client,
		recommended: recommended,
		loading:     true,
		search:      ti,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init loads the installed models.
func (m Manager) Init() tea.Cmd {
	return LoadCmd(m.client)
}

// SetSize sets the render area.
func (m *Manager) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.bar.Width = max(min(w-20, 60), 10)
}

// SetTheme swaps the theme.
func (m *Manager) SetTheme(theme *styles.Theme) {
	m.theme = theme
}

// Pulling returns the name of the model being pulled, or "".
func (m Manager) Pulling() string {
	return m.pulling
}

// Installed returns the installed models from the last load.
func (m Manager) Installed() []ollama.ModelInfo {
	return m.installed
}

// Available returns the install candidates currently listed.
func (m Manager) Available() []string {
	return catalog.Available(m.recommended, names(m.installed), m.search.Value())
}

// Update handles manager input and async results.
func (m Manager) Update(msg tea.Msg) (Manager, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.installed = msg.Models
		}
		m.rebuild()
		return m, nil

	case PullProgressMsg:
		if msg.Name != m.pulling {
			return m, nil
		}
		m.pullStatus = msg.Progress.Status
		if msg.Progress.Total > 0 {
			m.pullFraction = msg.Progress.Fraction()
		}
		return m, waitPull(msg.Name, msg.events)

	case PullDoneMsg:
		if m.pullCancel != nil {
			m.pullCancel()
		}
		m.pulling, m.pullStatus, m.pullFraction, m.pullCancel = "", "", 0, nil
		if msg.Err != nil {
			if ollama.IsCanceled(msg.Err) {
				m.notice = "Pull of " + msg.Name + " canceled"
			} else {
				m.err = fmt.Errorf("pull %s: %w", msg.Name, msg.Err)
			}
		} else {
			m.notice = "Installed " + msg.Name
		}
		return m, LoadCmd(m.client)

	case DeletedMsg:
		m.deleting = ""
		if msg.Err != nil {
			m.err = fmt.Errorf("delete %s: %w", msg.Name, msg.Err)
			return m, nil
		}
		m.notice = "Deleted " + msg.Name
		return m, LoadCmd(m.client)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Manager) handleKey(msg tea.KeyMsg) (Manager, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.rebuild()
		return m, cmd
	}

	if m.confirmDelete != "" {
		name := m.confirmDelete
		m.confirmDelete = ""
		if key.Matches(msg, m.keys.Confirm) {
			m.deleting = name
			m.err, m.notice = nil, ""
			return m, deleteCmd(m.client, name)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, LoadCmd(m.client)

	case key.Matches(msg, m.keys.CancelBtn):
		if m.pullCancel != nil {
			m.pullCancel()
		}

	case key.Matches(msg, m.keys.Install):
		r, ok := m.selected()
		if !ok || r.kind != rowAvailable || m.pulling != "" {
			return m, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		m.pulling = r.name
		m.pullStatus = "starting"
		m.pullFraction = 0
		m.pullCancel = cancel
		m.err, m.notice = nil, ""
		return m, waitPull(r.name, startPull(ctx, m.client, r.name))

	case key.Matches(msg, m.keys.Delete):
		r, ok := m.selected()
		if ok && r.kind == rowInstalled && m.deleting == "" {
			m.confirmDelete = r.name
		}
	}
	return m, nil
}

func (m Manager) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// rebuild recomputes the rows after a load or a search change.
func (m *Manager) rebuild() {
	m.rows = nil
	for _, im := range m.installed {
		m.rows = append(m.rows, row{kind: rowInstalled, name: im.Name, size: im.Size})
	}
	for _, name := range m.Available() {
		m.rows = append(m.rows, row{kind: rowAvailable, name: name})
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the manager screen.
func (m Manager) View() string {
	var sb strings.Builder
	sb.WriteString(m.theme.ScreenTitle.Render("Models"))
	sb.WriteString("\n")

	if m.loading && len(m.rows) == 0 {
		sb.WriteString(m.theme.Hint.Render("Loading models..."))
		return sb.String()
	}
	if m.loadErr != nil {
		sb.WriteString(m.theme.ErrorText.Render(LoadFailedText))
		sb.WriteString("\n")
		sb.WriteString(m.theme.Hint.Render("r retry · Esc back"))
		return sb.String()
	}

	idx := 0
	sb.WriteString(m.theme.SectionTitle.Render(fmt.Sprintf("Installed (%d)", len(m.installed))))
	sb.WriteString("\n")
	if len(m.installed) == 0 {
		sb.WriteString(m.theme.ListItemDim.Render(NoModelsText))
		sb.WriteString("\n")
	}
	for ; idx < len(m.rows) && m.rows[idx].kind == rowInstalled; idx++ {
		r := m.rows[idx]
		label := fmt.Sprintf("%s  %s", util.PadWidth(r.name, 32), m.theme.Timestamp.Render(fmt.Sprintf("%d GB", ollama.SizeGB(r.size))))
		if r.name == m.deleting {
			label += " " + m.theme.WarningText.Render("deleting...")
		}
		sb.WriteString(m.renderRow(idx, label))
	}

	sb.WriteString(m.theme.SectionTitle.Render("Available"))
	sb.WriteString("\n")
	sb.WriteString(m.search.View())
	sb.WriteString("\n")
	if idx == len(m.rows) {
		sb.WriteString(m.theme.ListItemDim.Render("No matching models."))
		sb.WriteString("\n")
	}

	// Keep the cursor visible when the available list is long.
	avail := m.rows[idx:]
	start, end := m.window(idx, len(avail))
	for i := start; i < end; i++ {
		label := avail[i].name
		if avail[i].name == m.pulling {
			label += " " + m.theme.WarningText.Render("installing...")
		}
		sb.WriteString(m.renderRow(idx+i, label))
	}
	if end < len(avail) {
		sb.WriteString(m.theme.Hint.Render(fmt.Sprintf("  ... %d more", len(avail)-end)))
		sb.WriteString("\n")
	}

	if m.pulling != "" {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Pulling %s: %s\n", m.pulling, m.pullStatus))
		sb.WriteString(m.bar.ViewAs(m.pullFraction))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case m.confirmDelete != "":
		sb.WriteString(m.theme.WarningText.Render(fmt.Sprintf("Delete %s? (y/n)", m.confirmDelete)))
	case m.err != nil:
		sb.WriteString(m.theme.ErrorText.Render(styles.StatusIndicators.Error + " " + m.err.Error()))
	case m.notice != "":
		sb.WriteString(m.theme.SuccessText.Render(m.notice))
	default:
		sb.WriteString(m.theme.Hint.Render("Enter install · d delete · / search · x cancel pull · r refresh · Esc back"))
	}
	return sb.String()
}

func (m Manager) renderRow(i int, label string) string {
	if i == m.cursor {
		return m.theme.ListItemSelected.Render(label) + "\n"
	}
	return m.theme.ListItem.Render(label) + "\n"
}

// window returns the visible slice bounds of the available list.
func (m Manager) window(offset, n int) (int, int) {
	visible := n
	if m.height > 0 {
		visible = max(m.height-len(m.installed)-14, 5)
	}
	if n <= visible {
		return 0, n
	}
	cur := m.cursor - offset
	start := 0
	if cur >= visible {
		start = cur - visible + 1
	}
	return start, min(start+visible, n)
}
