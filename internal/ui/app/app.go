// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/session"
	"github.com/jeranaias/aloha-tui/internal/storage"
	"github.com/jeranaias/aloha-tui/internal/ui/chat"
	"github.com/jeranaias/aloha-tui/internal/ui/models"
	"github.com/jeranaias/aloha-tui/internal/ui/settings"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Screen is the main area currently shown.
type Screen int

const (
	ScreenChat Screen = iota
	ScreenModels
	ScreenSettings
)

// ChatStore is the part of the chat store the shell uses.
type ChatStore interface {
	List(ctx context.Context) ([]storage.ChatSummary, error)
	Delete(ctx context.Context, id string) error
}

// SettingsListener is told about every settings change.
type SettingsListener interface {
	SetSettings(config.Settings)
}

// Options wires the shell to its collaborators.
type Options struct {
	Config  *config.Config
	Client  models.Client
	Store   ChatStore
	Session *session.Manager

	// Sound receives settings changes. Optional.
	Sound SettingsListener

	// Recommended lists "family:variant" names offered for install.
	Recommended []string

	// SaveSettings persists a settings patch. Nil keeps changes in memory.
	SaveSettings settings.SaveFunc

	// SaveModel persists the selected model. Optional.
	SaveModel func(name string) error

	// ConfigUpdates delivers configs reloaded after external edits.
	ConfigUpdates <-chan *config.Config

	Logger *slog.Logger
	Now    func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	theme *styles.Theme
	keys  KeyMap
	log   *slog.Logger
	now   func() time.Time

	cfg         *config.Config
	client      models.Client
	store       ChatStore
	session     *session.Manager
	sound       SettingsListener
	recommended []string
	saveModel   func(string) error
	updates     <-chan *config.Config

	width        int
	height       int
	sidebarWidth int

	screen      Screen
	overlay     bool
	showSidebar bool

	chat         chat.Model
	selector     models.Selector
	manager      models.Manager
	managerReady bool
	settingsView settings.Model
	sidebar      sidebar

	settings      config.Settings
	confirmDelete *storage.ChatSummary
	err           error
	notice        string
}

// New creates the root model.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &Model{
		keys:        DefaultKeyMap(),
		log:         log,
		now:         now,
		cfg:         cfg,
		client:      opts.Client,
		store:       opts.Store,
		session:     opts.Session,
		sound:       opts.Sound,
		recommended: opts.Recommended,
		saveModel:   opts.SaveModel,
		updates:     opts.ConfigUpdates,
		showSidebar: true,
		settings:    cfg.Settings,
	}
	m.theme = styles.NewTheme(cfg.Settings.Theme)

	save := opts.SaveSettings
	if save == nil {
		save = m.saveInMemory
	}
	m.chat = chat.New(m.theme, m.session, m.settings)
	m.settingsView = settings.New(m.theme, m.settings, save)
	return m
}

func (m *Model) saveInMemory(patch config.SettingsPatch) (config.Settings, error) {
	if err := m.cfg.UpdateSettings(patch); err != nil {
		return config.Settings{}, err
	}
	return m.cfg.Settings, nil
}

// Screen returns the screen in the main area.
func (m *Model) Screen() Screen {
	return m.screen
}

// Overlay reports whether the model selector is open.
func (m *Model) Overlay() bool {
	return m.overlay
}

// Theme returns the active theme.
func (m *Model) Theme() *styles.Theme {
	return m.theme
}

// Settings returns the settings in effect.
func (m *Model) Settings() config.Settings {
	return m.settings
}

// Err returns the error shown in the status bar, if any.
func (m *Model) Err() error {
	return m.err
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init loads the sidebar and the installed models.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.chat.Init(),
		loadChatsCmd(m.store),
		models.LoadCmd(m.client),
		waitConfig(m.updates),
	)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChatsLoadedMsg:
		m.sidebar.err = msg.Err
		if msg.Err != nil {
			m.log.Warn("list chats failed", "error", msg.Err)
			return m, nil
		}
		m.sidebar.setChats(msg.Chats)
		return m, nil

	case ChatOpenedMsg:
		if msg.Err != nil {
			m.setErr(fmt.Errorf("open chat: %w", msg.Err))
			return m, nil
		}
		m.chat.Reload()
		m.sidebar.focused = false
		m.clearStatus()
		return m, m.chat.Focus()

	case ChatDeletedMsg:
		return m.handleChatDeleted(msg)

	case chat.SendDoneMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, tea.Batch(cmd, loadChatsCmd(m.store))

	case models.LoadedMsg:
		return m.handleModelsLoaded(msg)

	case models.SelectedMsg:
		m.overlay = false
		m.setModel(msg.Name)
		return m, m.chat.Focus()

	case models.OpenManagerMsg:
		m.overlay = false
		return m, m.openManager()

	case models.CloseMsg:
		if m.overlay {
			m.overlay = false
		} else if m.screen == ScreenModels {
			m.screen = ScreenChat
		}
		return m, m.chat.Focus()

	case models.PullProgressMsg, models.PullDoneMsg, models.DeletedMsg:
		if !m.managerReady {
			return m, nil
		}
		var cmd tea.Cmd
		m.manager, cmd = m.manager.Update(msg)
		return m, cmd

	case settings.ChangedMsg:
		m.applySettings(msg.Settings)
		return m, nil

	case settings.CloseMsg:
		m.screen = ScreenChat
		return m, m.chat.Focus()

	case ConfigChangedMsg:
		m.applyConfig(msg.Config)
		return m, waitConfig(m.updates)
	}

	// Everything else goes to the chat view, which keeps streaming while
	// another screen is shown, and to the active screen for its own ticks.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)

	switch m.screen {
	case ScreenSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
		cmds = append(cmds, cmd)
	case ScreenModels:
		m.manager, cmd = m.manager.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		// The first Ctrl+C stops a pending reply.
		if m.chat.Pending() {
			m.session.Cancel()
			return m, nil
		}
		return m, tea.Quit
	}

	if m.confirmDelete != nil {
		target := *m.confirmDelete
		m.confirmDelete = nil
		m.notice = ""
		if msg.String() == "y" || msg.String() == "Y" {
			return m, deleteChatCmd(m.store, target.ID)
		}
		return m, nil
	}

	if m.overlay {
		var cmd tea.Cmd
		m.selector, cmd = m.selector.Update(msg)
		return m, cmd
	}

	switch m.screen {
	case ScreenModels:
		var cmd tea.Cmd
		m.manager, cmd = m.manager.Update(msg)
		return m, cmd
	case ScreenSettings:
		var cmd tea.Cmd
		m.settingsView, cmd = m.settingsView.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.NewChat):
		return m, m.newChat()

	case key.Matches(msg, m.keys.DeleteChat):
		m.askDelete()
		return m, nil

	case key.Matches(msg, m.keys.SelectModel):
		m.overlay = true
		m.selector = models.NewSelector(m.theme, m.client, m.session.Model())
		m.selector.SetWidth(min(m.width-m.sidebarWidth, 60))
		m.chat.Blur()
		return m, m.selector.Init()

	case key.Matches(msg, m.keys.ManageModels):
		return m, m.openManager()

	case key.Matches(msg, m.keys.Settings):
		m.screen = ScreenSettings
		m.settingsView.SetSettings(m.settings)
		m.chat.Blur()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		if !m.showSidebar && m.sidebar.focused {
			m.sidebar.focused = false
			m.layout()
			return m, m.chat.Focus()
		}
		m.layout()
		return m, nil
	}

	if m.sidebar.focused {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.FocusSidebar) && m.sidebarWidth > 0 {
		m.sidebar.focused = true
		m.sidebar.selectID(m.session.ChatID())
		m.chat.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar.move(1)
	case key.Matches(msg, m.keys.Open):
		if c, ok := m.sidebar.selected(); ok {
			if m.chat.Pending() {
				m.setErr(session.ErrBusy)
				return m, nil
			}
			return m, openChatCmd(m.session, c.ID)
		}
	case key.Matches(msg, m.keys.Back):
		m.sidebar.focused = false
		return m, m.chat.Focus()
	}
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) newChat() tea.Cmd {
	if err := m.session.Reset(); err != nil {
		m.setErr(err)
		return nil
	}
	m.chat.Reload()
	m.sidebar.focused = false
	m.clearStatus()
	return m.chat.Focus()
}

// askDelete asks to delete the highlighted chat when the sidebar has focus,
// otherwise the current chat.
func (m *Model) askDelete() {
	var target storage.ChatSummary
	if m.sidebar.focused {
		c, ok := m.sidebar.selected()
		if !ok {
			return
		}
		target = c
	} else {
		current := m.session.Chat()
		if current == nil {
			return
		}
		target = storage.ChatSummary{ID: current.ID, Title: current.Title}
	}

	if target.ID == m.session.ChatID() && m.chat.Pending() {
		m.setErr(session.ErrBusy)
		return
	}
	m.confirmDelete = &target
	m.err = nil
	m.notice = fmt.Sprintf("Delete %q? (y/n)", target.Title)
}

func (m *Model) handleChatDeleted(msg ChatDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil && !errors.Is(msg.Err, storage.ErrChatNotFound) {
		m.setErr(fmt.Errorf("delete chat: %w", msg.Err))
		return m, nil
	}
	if msg.ID == m.session.ChatID() {
		if err := m.session.Reset(); err != nil {
			m.setErr(err)
		} else {
			m.chat.Reload()
		}
	}
	m.notice = "Chat deleted"
	return m, loadChatsCmd(m.store)
}

func (m *Model) openManager() tea.Cmd {
	m.screen = ScreenModels
	m.chat.Blur()
	if !m.managerReady {
		m.manager = models.NewManager(m.theme, m.client, m.recommended)
		m.managerReady = true
		m.layout()
		return m.manager.Init()
	}
	return models.LoadCmd(m.client)
}

func (m *Model) handleModelsLoaded(msg models.LoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn("list models failed", "error", msg.Err)
	} else if resolved := models.ResolveModel(m.session.Model(), msg.Models); resolved != m.session.Model() {
		m.setModel(resolved)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.overlay {
		m.selector, cmd = m.selector.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.managerReady {
		m.manager, cmd = m.manager.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) setModel(name string) {
	m.session.SetModel(name)
	if m.saveModel == nil || name == "" {
		return
	}
	if err := m.saveModel(name); err != nil {
		m.setErr(fmt.Errorf("save model: %w", err))
	}
}

// applySettings pushes s to every part that reads settings.
func (m *Model) applySettings(s config.Settings) {
	themeChanged := s.Theme != m.settings.Theme
	m.settings = s
	m.session.SetSettings(s)
	m.chat.SetSettings(s)
	if m.sound != nil {
		m.sound.SetSettings(s)
	}
	if !themeChanged {
		return
	}

	m.theme = styles.NewTheme(s.Theme)
	m.theme.SetSize(m.width, m.height)
	m.chat.SetTheme(m.theme)
	m.settingsView.SetTheme(m.theme)
	m.selector.SetTheme(m.theme)
	if m.managerReady {
		m.manager.SetTheme(m.theme)
	}
}

// applyConfig takes in a config edited outside the TUI.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	changed := cfg.Settings != m.settings
	m.applySettings(cfg.Settings)
	m.settingsView.SetSettings(cfg.Settings)
	if cfg.Ollama.Model != "" && cfg.Ollama.Model != m.session.Model() {
		m.session.SetModel(cfg.Ollama.Model)
		changed = true
	}
	// Our own saves come back through the watcher unchanged.
	if changed {
		m.notice = "Settings reloaded"
	}
}

func (m *Model) setErr(err error) {
	m.log.Warn("ui error", "error", err)
	m.err = err
	m.notice = ""
}

func (m *Model) clearStatus() {
	m.err = nil
	m.notice = ""
}

// =============================================================================
// LAYOUT AND VIEW
// =============================================================================

func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)
	m.sidebarWidth = 0
	if m.showSidebar {
		m.sidebarWidth = m.theme.SidebarWidth()
	}
	w, h := m.contentSize()
	m.chat.SetSize(w, h)
	m.settingsView.SetWidth(w)
	m.selector.SetWidth(min(w, 60))
	if m.managerReady {
		m.manager.SetSize(w-4, h-2)
	}
}

// contentSize is the main area beside the sidebar, above the status bar.
func (m *Model) contentSize() (int, int) {
	return max(m.width-m.sidebarWidth, 1), max(m.height-1, 1)
}

func (m *Model) status() Status {
	switch {
	case m.err != nil:
		return StatusError
	case m.chat.Pending():
		return StatusGenerating
	case m.managerReady && m.manager.Pulling() != "":
		return StatusPulling
	}
	return StatusReady
}

// View renders the current screen.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	w, h := m.contentSize()
	var content string
	switch m.screen {
	case ScreenModels:
		content = lipgloss.NewStyle().Padding(1, 2).Render(m.manager.View())
	case ScreenSettings:
		content = lipgloss.NewStyle().Padding(1, 2).Render(m.settingsView.View())
	default:
		content = m.chat.View()
	}
	if m.overlay {
		content = lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.theme.Panel.Render(m.selector.View()))
	}
	content = lipgloss.NewStyle().Width(w).Height(h).MaxWidth(w).MaxHeight(h).Render(content)

	if m.sidebarWidth > 0 {
		side := m.sidebar.view(m.theme, m.sidebarWidth, h, m.session.ChatID(), m.now())
		content = lipgloss.JoinHorizontal(lipgloss.Top, side, content)
	}

	message := m.notice
	if m.err != nil {
		message = m.err.Error()
	}
	bar := statusBar{
		Status:    m.status(),
		ModelName: m.session.Model(),
		Message:   message,
		Width:     m.width,
		Bindings:  m.keys.ShortHelp(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, bar.View(m.theme))
}
