// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/aloha-tui/internal/model"
)

// =============================================================================
// STRUCTURED DOCUMENT
// =============================================================================

// Document is the structured form shared by the JSON and YAML exporters.
type Document struct {
	Version    string            `json:"version" yaml:"version"`
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
	Chat       DocumentChat      `json:"chat" yaml:"chat"`
	Messages   []DocumentMessage `json:"messages" yaml:"messages"`
}

// DocumentChat carries chat-level metadata.
type DocumentChat struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// DocumentMessage keeps the raw content plus the split reasoning and answer.
type DocumentMessage struct {
	Role      string     `json:"role" yaml:"role"`
	Content   string     `json:"content" yaml:"content"`
	Reasoning string     `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Answer    string     `json:"answer,omitempty" yaml:"answer,omitempty"`
	Model     string     `json:"model,omitempty" yaml:"model,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// DocumentVersion is the format version written into exports.
const DocumentVersion = "1"

// NewDocument builds the structured form of a chat.
func NewDocument(chat *model.Chat, opts *Options) *Document {
	if opts == nil {
		opts = DefaultOptions()
	}
	doc := &Document{
		Version:    DocumentVersion,
		ExportedAt: opts.now().UTC(),
		Chat: DocumentChat{
			ID:        chat.ID,
			Title:     chat.Title,
			CreatedAt: chat.CreatedAt.UTC(),
			UpdatedAt: chat.UpdatedAt.UTC(),
		},
		Messages: make([]DocumentMessage, 0, len(chat.Messages)),
	}

	for _, m := range chat.Messages {
		dm := DocumentMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Model:   m.Model,
		}
		if m.Role == model.RoleAssistant {
			if th := model.ParseThinking(m.Content); th.HasReasoning() {
				dm.Reasoning = th.Reasoning
				dm.Answer = th.Answer
			}
		}
		if opts.IncludeTimestamps && !m.Timestamp.IsZero() {
			ts := m.Timestamp.UTC()
			dm.Timestamp = &ts
		}
		doc.Messages = append(doc.Messages, dm)
	}
	return doc
}

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports chats as indented JSON.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a chat to JSON.
func (e *JSONExporter) Export(chat *model.Chat) ([]byte, error) {
	if err := validate(chat); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(NewDocument(chat, e.options)); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns "application/json".
func (e *JSONExporter) MimeType() string { return "application/json" }

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports chats as YAML.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

// Export converts a chat to YAML.
func (e *YAMLExporter) Export(chat *model.Chat) ([]byte, error) {
	if err := validate(chat); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(chat, e.options)); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns ".yaml".
func (e *YAMLExporter) FileExtension() string { return ".yaml" }

// MimeType returns "application/yaml".
func (e *YAMLExporter) MimeType() string { return "application/yaml" }
