// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/session"
	"github.com/jeranaias/aloha-tui/internal/storage"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
)

type scriptedClient struct {
	tokens []string
}

func (c *scriptedClient) ChatStream(ctx context.Context, req ollama.ChatRequest, cb ollama.StreamCallback) error {
	for _, tok := range c.tokens {
		cb(ollama.StreamChunk{Content: tok})
	}
	cb(ollama.StreamChunk{Done: true})
	return nil
}

func (c *scriptedClient) GenerateTitle(ctx context.Context, modelName, first string) (string, error) {
	return "", errors.New("no titles here")
}

func newTestChat(t *testing.T, modelName string, tokens ...string) (Model, *session.Manager) {
	t.Helper()
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "chats.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := session.NewManager(session.Options{
		Client:   &scriptedClient{tokens: tokens},
		Store:    store,
		Settings: config.DefaultSettings(),
		Model:    modelName,
	})
	m := New(styles.NewTheme(config.ThemeLight), mgr, config.DefaultSettings())
	m.SetSize(100, 30)
	return m, mgr
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestEmptyState(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	view := m.View()
	if !strings.Contains(view, EmptyTitle) {
		t.Errorf("View() missing %q", EmptyTitle)
	}
	if !strings.Contains(view, EmptySubtitle) {
		t.Errorf("View() missing %q", EmptySubtitle)
	}
	if m.Title() != model.DefaultTitle {
		t.Errorf("Title() = %q, want %q", m.Title(), model.DefaultTitle)
	}
}

func TestSendIgnoresBlankInput(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	m = typeText(m, "   ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("blank input should not start a send")
	}
	if m.Pending() {
		t.Error("Pending() = true after blank send")
	}
}

func TestSendStartsPendingReply(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	m = typeText(m, "  hello there  ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter should return a send command")
	}
	if !m.Pending() {
		t.Fatal("Pending() = false after send")
	}
	if m.Input() != "" {
		t.Errorf("Input() = %q, want cleared", m.Input())
	}

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "hello there" {
		t.Errorf("user content = %q, want trimmed", msgs[0].Content)
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Model != "llama3.2:3b" {
		t.Errorf("placeholder = %+v", msgs[1])
	}

	// Sending again while pending does nothing.
	m = typeText(m, "second")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || len(m.Messages()) != 2 {
		t.Error("send while pending should be ignored")
	}
	if m.Input() != "second" {
		t.Errorf("Input() = %q, want kept while pending", m.Input())
	}
}

func TestSendWithoutModel(t *testing.T) {
	m, _ := newTestChat(t, "")
	m = typeText(m, "hi")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !errors.Is(m.Err(), session.ErrNoModel) {
		t.Errorf("Err() = %v, want ErrNoModel", m.Err())
	}
	if m.Pending() {
		t.Error("Pending() = true without a model")
	}
}

func TestAltEnterInsertsNewline(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	m = typeText(m, "line one")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(m, "line two")

	if got := m.Input(); got != "line one\nline two" {
		t.Errorf("Input() = %q", got)
	}
	if m.Pending() {
		t.Error("Alt+Enter should not send")
	}
}

func TestStreamTickAppendsBufferedTokens(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	m = typeText(m, "hi")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.buffer = NewStreamingBufferWithConfig(1, time.Hour)
	m.buffer.Write("Hel")
	m, cmd := m.Update(StreamTickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("tick while pending should schedule another tick")
	}

	msgs := m.Messages()
	if got := msgs[len(msgs)-1].Content; got != "Hel" {
		t.Errorf("reply content = %q, want %q", got, "Hel")
	}
}

func TestSendCommandCompletes(t *testing.T) {
	m, mgr := newTestChat(t, "llama3.2:3b", "Hi", " there")
	buf := NewStreamingBuffer()

	msg := sendCmd(mgr, "Greetings", buf)()
	done, ok := msg.(SendDoneMsg)
	if !ok {
		t.Fatalf("sendCmd returned %T", msg)
	}
	if done.Err != nil {
		t.Fatalf("send error: %v", done.Err)
	}
	if content, _ := buf.ForceFlush(); content != "Hi there" {
		t.Errorf("buffered = %q", content)
	}

	m.pending = true
	m, _ = m.Update(done)
	if m.Pending() {
		t.Error("Pending() = true after SendDoneMsg")
	}
	if m.Title() != "Greetings" {
		t.Errorf("Title() = %q, want Greetings", m.Title())
	}
	msgs := m.Messages()
	if len(msgs) != 2 || msgs[1].Content != "Hi there" {
		t.Errorf("Messages() = %+v", msgs)
	}
	if !strings.Contains(m.View(), "You") {
		t.Error("View() missing user header")
	}
}

func TestSendDoneCanceled(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	m.pending = true

	m, _ = m.Update(SendDoneMsg{Err: ollama.ErrCanceled})
	if m.Pending() {
		t.Error("Pending() = true after cancel")
	}
	if m.Err() != nil {
		t.Errorf("Err() = %v, cancel is not an error", m.Err())
	}
	if !strings.Contains(m.View(), "Reply stopped") {
		t.Error("View() missing stop notice")
	}
}

func TestSendDoneError(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	m.pending = true

	m, _ = m.Update(SendDoneMsg{Err: ollama.ErrNotRunning})
	if !ollama.IsNotRunning(m.Err()) {
		t.Errorf("Err() = %v", m.Err())
	}
	if !strings.Contains(m.View(), "Ollama is not running") {
		t.Error("View() should show the error")
	}
}

func TestCopyLastReply(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { clipboardWrite = orig })

	m, _ := newTestChat(t, "llama3.2:3b")
	if cmd := m.copyLastReply(); cmd != nil {
		t.Error("copy with no reply should be a no-op")
	}

	now := time.Now()
	m.messages = []model.Message{
		model.NewUserMessage("q", now),
		model.NewAssistantMessage("<think>hmm</think>The answer.", "m", now),
		model.NewUserMessage("q2", now),
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd == nil {
		t.Fatal("Ctrl+Y should return a copy command")
	}
	msg := cmd()
	if copied != "The answer." {
		t.Errorf("copied %q, want the answer without reasoning", copied)
	}

	m, _ = m.Update(msg)
	if !strings.Contains(m.View(), "Copied") {
		t.Error("View() missing copy notice")
	}
}

func TestThinkingToggle(t *testing.T) {
	m, _ := newTestChat(t, "llama3.2:3b")
	now := time.Now()
	m.messages = []model.Message{
		model.NewUserMessage("q", now),
		model.NewAssistantMessage("<think>secret plan</think>Done.", "m", now),
	}
	m.refresh()

	collapsed := m.renderMessages()
	if strings.Contains(collapsed, "secret plan") {
		t.Error("reasoning should be collapsed by default")
	}
	if !strings.Contains(collapsed, "Thinking") {
		t.Error("collapsed view should show the Thinking header")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if !strings.Contains(m.renderMessages(), "secret plan") {
		t.Error("Ctrl+T should expand reasoning")
	}
}
