// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the header shown above a message.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Model"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn in a chat.
type Message struct {
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Model that produced an assistant message. Empty for user messages.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string, now time.Time) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: now}
}

// NewAssistantMessage creates an assistant message attributed to modelName.
func NewAssistantMessage(content, modelName string, now time.Time) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: now, Model: modelName}
}

// IsEmpty reports whether the message has no visible content.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// Preview returns the first line of the visible answer, truncated to maxLen
// runes. Reasoning blocks are skipped.
func (m Message) Preview(maxLen int) string {
	content := m.Content
	if m.Role == RoleAssistant {
		content = ParseThinking(content).Answer
	}
	content = strings.TrimSpace(content)
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	return util.TruncateRunes(util.CollapseSpace(content), maxLen)
}

// =============================================================================
// THINKING BLOCKS
// =============================================================================

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// Thinking is an assistant reply split into its reasoning and its answer.
type Thinking struct {
	// Reasoning is the text inside <think> blocks, joined by blank lines.
	Reasoning string

	// Answer is the visible reply with reasoning removed.
	Answer string

	// InProgress is true while a <think> block is still open.
	InProgress bool
}

// HasReasoning reports whether any reasoning text was found.
func (t Thinking) HasReasoning() bool {
	return t.Reasoning != "" || t.InProgress
}

// ParseThinking splits reasoning out of content. An unclosed <think> means
// the model is still reasoning: everything after it is reasoning and the
// answer is empty until the block closes.
func ParseThinking(content string) Thinking {
	var (
		reasoning []string
		answer    strings.Builder
		result    Thinking
	)

	rest := content
	for {
		open := strings.Index(rest, thinkOpen)
		if open < 0 {
			answer.WriteString(rest)
			break
		}
		answer.WriteString(rest[:open])
		rest = rest[open+len(thinkOpen):]

		end := strings.Index(rest, thinkClose)
		if end < 0 {
			if r := strings.TrimSpace(rest); r != "" {
				reasoning = append(reasoning, r)
			}
			result.InProgress = true
			break
		}
		if r := strings.TrimSpace(rest[:end]); r != "" {
			reasoning = append(reasoning, r)
		}
		rest = rest[end+len(thinkClose):]
	}

	result.Reasoning = strings.Join(reasoning, "\n\n")
	if !result.InProgress {
		result.Answer = strings.TrimSpace(answer.String())
	}
	return result
}
