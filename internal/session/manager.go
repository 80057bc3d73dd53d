// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned by Send while another send is in flight.
	ErrBusy = errors.New("a reply is already in progress")

	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoModel is returned when no model is selected.
	ErrNoModel = errors.New("no model selected")
)

// IsCanceled reports whether err came from an aborted send.
func IsCanceled(err error) bool {
	return ollama.IsCanceled(err) || errors.Is(err, context.Canceled)
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// ChatClient is the part of the Ollama client the send flow needs.
type ChatClient interface {
	ChatStream(ctx context.Context, req ollama.ChatRequest, callback ollama.StreamCallback) error
	GenerateTitle(ctx context.Context, model, firstMessage string) (string, error)
}

// ChatStore is the part of the chat store the send flow needs.
type ChatStore interface {
	Create(ctx context.Context, chat *model.Chat) error
	Get(ctx context.Context, id string) (*model.Chat, error)
	AppendMessages(ctx context.Context, id string, updatedAt time.Time, msgs ...model.Message) error
	Rename(ctx context.Context, id, title string) error
}

// Notifier plays audible cues.
type Notifier interface {
	MessageSent()
	Typing()
}

var (
	_ ChatClient = (*ollama.Client)(nil)
	_ ChatStore  = (*storage.Store)(nil)
)

type silent struct{}

func (silent) MessageSent() {}
func (silent) Typing()      {}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Options configures a Manager.
type Options struct {
	Client   ChatClient
	Store    ChatStore
	Sound    Notifier
	Settings config.Settings
	Model    string
	Logger   *slog.Logger

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// Manager holds the current chat and runs sends against it.
// It is safe for concurrent use.
type Manager struct {
	client ChatClient
	store  ChatStore
	sound  Notifier
	log    *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	chat     *model.Chat
	settings config.Settings
	model    string
	busy     bool
	cancel   context.CancelFunc
}

// NewManager creates a manager with no current chat.
func NewManager(opts Options) *Manager {
	m := &Manager{
		client:   opts.Client,
		store:    opts.Store,
		sound:    opts.Sound,
		log:      opts.Logger,
		now:      opts.Now,
		settings: opts.Settings,
		model:    opts.Model,
	}
	if m.sound == nil {
		m.sound = silent{}
	}
	if m.log == nil {
		m.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Result describes a completed send.
type Result struct {
	// Chat is a snapshot of the chat after the reply was persisted.
	Chat *model.Chat

	// Created is true when this send created the chat.
	Created bool

	// Reply is the assistant's full reply.
	Reply string

	// Final carries the stream's closing statistics.
	Final ollama.StreamChunk
}

// =============================================================================
// STATE
// =============================================================================

// Chat returns a copy of the current chat, or nil when none is open.
func (m *Manager) Chat() *model.Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chat == nil {
		return nil
	}
	return m.chat.Clone()
}

// ChatID returns the current chat id, or "" when none is open.
func (m *Manager) ChatID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chat == nil {
		return ""
	}
	return m.chat.ID
}

// Open loads a chat from the store and makes it current.
func (m *Manager) Open(ctx context.Context, id string) error {
	chat, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.chat = chat
	return nil
}

// Reset clears the current chat so the next send starts a new one.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.chat = nil
	return nil
}

// Model returns the selected model.
func (m *Manager) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel selects the model used by later sends.
func (m *Manager) SetModel(name string) {
	m.mu.Lock()
	m.model = name
	m.mu.Unlock()
}

// SetSettings swaps the settings consulted by later sends.
func (m *Manager) SetSettings(s config.Settings) {
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
}

// Busy reports whether a send is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Cancel aborts the in-flight send. It reports whether there was one.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return false
	}
	m.cancel()
	return true
}

// =============================================================================
// SEND
// =============================================================================

// Send posts content to the current chat and streams the reply. onToken, if
// non-nil, receives every fragment in arrival order on the calling goroutine.
//
// With no current chat a new one is created and persisted first. On success
// the user message and the reply are appended to the store and a first
// exchange sets the title. On failure nothing further is persisted; a
// canceled send returns an error matching IsCanceled and keeps the partial
// reply in the in-memory chat.
func (m *Manager) Send(ctx context.Context, content string, onToken func(token string)) (*Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	if m.model == "" {
		m.mu.Unlock()
		return nil, ErrNoModel
	}
	m.busy = true
	streamCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	settings := m.settings
	modelName := m.model
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		m.busy = false
		m.cancel = nil
		m.mu.Unlock()
	}()

	created, err := m.ensureChat(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	userMsg := model.NewUserMessage(content, now)

	m.mu.Lock()
	m.chat.Messages = append(m.chat.Messages, userMsg)
	chatID := m.chat.ID
	firstExchange := m.chat.NeedsTitle()
	req := ollama.ChatRequest{
		Model:    modelName,
		Messages: m.chat.ToOllamaMessages(settings.ActiveSystemPrompt()),
	}
	m.chat.Messages = append(m.chat.Messages, model.NewAssistantMessage("", modelName, now))
	m.mu.Unlock()

	m.sound.MessageSent()
	m.sound.Typing()

	m.log.Debug("send", "chat", chatID, "model", modelName, "messages", len(req.Messages))

	var final ollama.StreamChunk
	err = m.client.ChatStream(streamCtx, req, func(chunk ollama.StreamChunk) {
		if chunk.Content != "" {
			m.mu.Lock()
			m.chat.AppendStreamToken(chunk.Content, m.now())
			m.mu.Unlock()
			if onToken != nil {
				onToken(chunk.Content)
			}
		}
		if chunk.Done {
			final = chunk
		}
	})
	if err != nil {
		m.dropEmptyReply()
		if IsCanceled(err) {
			m.log.Debug("send canceled", "chat", chatID)
		} else {
			m.log.Warn("send failed", "chat", chatID, "error", err)
		}
		return nil, err
	}

	m.sound.MessageSent()

	m.mu.Lock()
	reply := *m.chat.LastMessage()
	m.mu.Unlock()

	doneAt := m.now()
	if err := m.store.AppendMessages(ctx, chatID, doneAt, userMsg, reply); err != nil {
		return nil, fmt.Errorf("save messages: %w", err)
	}

	m.mu.Lock()
	m.chat.UpdatedAt = doneAt
	m.mu.Unlock()

	if firstExchange {
		title := m.title(streamCtx, settings, modelName, content)
		if err := m.store.Rename(ctx, chatID, title); err != nil {
			m.log.Warn("set title", "chat", chatID, "error", err)
		} else {
			m.mu.Lock()
			m.chat.Title = title
			m.mu.Unlock()
		}
	}

	return &Result{
		Chat:    m.Chat(),
		Created: created,
		Reply:   reply.Content,
		Final:   final,
	}, nil
}

// dropEmptyReply removes a reply placeholder that never received a token.
func (m *Manager) dropEmptyReply() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if last := m.chat.LastMessage(); last != nil && last.Role == model.RoleAssistant && last.Content == "" {
		m.chat.Messages = m.chat.Messages[:len(m.chat.Messages)-1]
	}
}

func (m *Manager) ensureChat(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chat != nil {
		return false, nil
	}

	chat := model.NewChat(m.now())
	if err := m.store.Create(ctx, chat); err != nil {
		return false, fmt.Errorf("create chat: %w", err)
	}
	m.chat = chat
	m.log.Debug("chat created", "chat", chat.ID)
	return true, nil
}

// title picks the first-exchange title. LLM titles fall back to the prompt.
func (m *Manager) title(ctx context.Context, settings config.Settings, modelName, prompt string) string {
	if settings.TitleGenerationMethod != config.TitleMethodLLM {
		return model.TitleFromPrompt(prompt)
	}
	title, err := m.client.GenerateTitle(ctx, modelName, prompt)
	if err != nil || strings.TrimSpace(title) == "" {
		m.log.Debug("llm title failed, using prompt", "error", err)
		return model.TitleFromPrompt(prompt)
	}
	return title
}
