// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/util"
)

// DefaultTitle is the title of a chat that has not been named yet.
const DefaultTitle = "New Chat"

// MaxTitleRunes caps titles derived from a prompt.
const MaxTitleRunes = 50

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat is a titled conversation with its full message history.
type Chat struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  []Message `json:"messages" yaml:"messages"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewChat creates an empty chat with a random id and the default title.
func NewChat(now time.Time) *Chat {
	return &Chat{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NeedsTitle reports whether the chat still carries the default title.
func (c *Chat) NeedsTitle() bool {
	return c.Title == DefaultTitle
}

// AppendStreamToken grows the trailing assistant message by token, or starts
// a new assistant message when the last message is not one.
func (c *Chat) AppendStreamToken(token string, now time.Time) {
	if n := len(c.Messages); n > 0 && c.Messages[n-1].Role == RoleAssistant {
		c.Messages[n-1].Content += token
		return
	}
	c.Messages = append(c.Messages, Message{
		Role:      RoleAssistant,
		Content:   token,
		Timestamp: now,
	})
}

// LastMessage returns the final message, or nil for an empty chat.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// LastAssistantMessage returns the most recent assistant message, or nil.
func (c *Chat) LastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return &c.Messages[i]
		}
	}
	return nil
}

// Preview returns a one-line summary of the last message for list views.
func (c *Chat) Preview() string {
	last := c.LastMessage()
	if last == nil {
		return ""
	}
	return last.Preview(60)
}

// ToOllamaMessages converts the history into API messages. A non-blank
// systemPrompt is sent first as a system message.
func (c *Chat) ToOllamaMessages(systemPrompt string) []ollama.Message {
	msgs := make([]ollama.Message, 0, len(c.Messages)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		msgs = append(msgs, ollama.NewSystemMessage(systemPrompt))
	}
	for _, m := range c.Messages {
		msgs = append(msgs, ollama.Message{Role: string(m.Role), Content: m.Content})
	}
	return msgs
}

// Clone returns a deep copy of the chat.
func (c *Chat) Clone() *Chat {
	clone := *c
	clone.Messages = append([]Message(nil), c.Messages...)
	return &clone
}

// =============================================================================
// TITLES
// =============================================================================

// TitleFromPrompt derives a chat title from the user's first prompt: its
// first non-empty line, whitespace collapsed, capped at MaxTitleRunes.
func TitleFromPrompt(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = util.CollapseSpace(line)
		if line == "" {
			continue
		}
		return util.TruncateRunes(line, MaxTitleRunes)
	}
	return DefaultTitle
}
