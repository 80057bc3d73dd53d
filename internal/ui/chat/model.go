// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/session"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// inputHeight is the number of text rows in the input box.
const inputHeight = 3

// clipboardWrite is swapped in tests.
var clipboardWrite = clipboard.WriteAll

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme    *styles.Theme
	keys     KeyMap
	session  *session.Manager
	settings config.Settings

	width  int
	height int

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	buffer   *StreamingBuffer
	markdown *markdownRenderer

	// View state, replaced from the session after every send.
	title    string
	messages []model.Message

	pending      bool
	showThinking bool
	err          error
	notice       string

	now func() time.Time
}

// New creates a chat view bound to mgr.
func New(theme *styles.Theme, mgr *session.Manager, settings config.Settings) Model {
	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	m := Model{
		theme:    theme,
		keys:     DefaultKeyMap(),
		session:  mgr,
		settings: settings,
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
		buffer:   NewStreamingBuffer(),
		markdown: newMarkdownRenderer(theme.GlamourStyle()),
		now:      time.Now,
	}
	m.Reload()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Pending reports whether a reply is streaming.
func (m Model) Pending() bool {
	return m.pending
}

// Title returns the title of the chat on screen.
func (m Model) Title() string {
	return m.title
}

// Messages returns the messages on screen.
func (m Model) Messages() []model.Message {
	return m.messages
}

// Err returns the error shown under the messages, if any.
func (m Model) Err() error {
	return m.err
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}

// SetInput replaces the input text.
func (m *Model) SetInput(s string) {
	m.input.SetValue(s)
}

// SetSize lays out the view for a width x height area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	m.input.SetWidth(max(width-4, 10))
	// header (2) + input box (inputHeight+2) + status line + hint line
	m.viewport.Width = width
	m.viewport.Height = max(height-2-(inputHeight+2)-2, 1)
	m.refresh()
}

// SetTheme swaps the theme and re-renders.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
	m.spinner.Style = theme.Spinner
	m.markdown = newMarkdownRenderer(theme.GlamourStyle())
	m.refresh()
}

// SetSettings swaps the settings consulted for auto-scroll.
func (m *Model) SetSettings(s config.Settings) {
	m.settings = s
}

// Focus gives the input keyboard focus.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes keyboard focus from the input.
func (m *Model) Blur() {
	m.input.Blur()
}

// Reload replaces the view state with the session's current chat.
func (m *Model) Reload() {
	chat := m.session.Chat()
	if chat == nil {
		m.title = model.DefaultTitle
		m.messages = nil
	} else {
		m.title = chat.Title
		m.messages = chat.Messages
	}
	m.err = nil
	m.notice = ""
	m.refresh()
	m.viewport.GotoBottom()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StreamTickMsg:
		return m.handleStreamTick()

	case SendDoneMsg:
		return m.handleSendDone(msg)

	case CopiedMsg:
		if msg.Err != nil {
			m.err = msg.Err
		} else {
			m.notice = "Copied reply to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.Cancel):
		if m.pending {
			m.session.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLastReply()

	case key.Matches(msg, m.keys.ToggleThinking):
		m.showThinking = !m.showThinking
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts a send of the trimmed input. Blank input and a pending reply
// are ignored.
func (m Model) send() (Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.pending {
		return m, nil
	}
	modelName := m.session.Model()
	if modelName == "" {
		m.err = session.ErrNoModel
		return m, nil
	}

	now := m.now()
	m.messages = append(m.messages,
		model.NewUserMessage(content, now),
		model.NewAssistantMessage("", modelName, now),
	)
	m.pending = true
	m.err = nil
	m.notice = ""
	m.input.Reset()
	m.buffer.Reset()
	m.refresh()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		sendCmd(m.session, content, m.buffer),
		m.spinner.Tick,
		streamTickCmd(),
	)
}

// sendCmd runs the send off the UI loop. Fragments go through buf.
func sendCmd(mgr *session.Manager, content string, buf *StreamingBuffer) tea.Cmd {
	return func() tea.Msg {
		res, err := mgr.Send(context.Background(), content, buf.Write)
		return SendDoneMsg{Result: res, Err: err}
	}
}

func (m Model) handleStreamTick() (Model, tea.Cmd) {
	if !m.pending {
		return m, nil
	}
	if content, ok := m.buffer.Flush(); ok {
		m.appendToReply(content)
		m.refresh()
		if m.settings.AutoScroll {
			m.viewport.GotoBottom()
		}
	}
	return m, streamTickCmd()
}

func (m *Model) appendToReply(content string) {
	if n := len(m.messages); n > 0 && m.messages[n-1].Role == model.RoleAssistant {
		m.messages[n-1].Content += content
	}
}

func (m Model) handleSendDone(msg SendDoneMsg) (Model, tea.Cmd) {
	m.pending = false
	m.buffer.Reset()

	switch {
	case msg.Err == nil:
		m.title = msg.Result.Chat.Title
		m.messages = msg.Result.Chat.Messages
	case session.IsCanceled(msg.Err):
		m.syncFromSession()
		m.notice = "Reply stopped"
	case errors.Is(msg.Err, session.ErrBusy):
		m.err = msg.Err
	default:
		m.syncFromSession()
		m.err = msg.Err
	}

	m.refresh()
	if m.settings.AutoScroll {
		m.viewport.GotoBottom()
	}
	return m, nil
}

// syncFromSession copies the in-memory chat, which keeps a partial reply
// after a failed or stopped send.
func (m *Model) syncFromSession() {
	if chat := m.session.Chat(); chat != nil {
		m.title = chat.Title
		m.messages = chat.Messages
	}
}

func (m Model) copyLastReply() tea.Cmd {
	var reply *model.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == model.RoleAssistant && !m.messages[i].IsEmpty() {
			reply = &m.messages[i]
			break
		}
	}
	if reply == nil {
		return nil
	}
	text := model.ParseThinking(reply.Content).Answer
	if text == "" {
		text = reply.Content
	}
	return func() tea.Msg {
		return CopiedMsg{Err: clipboardWrite(text)}
	}
}
