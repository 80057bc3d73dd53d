// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/aloha-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports chats to Markdown with optional YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

type frontmatter struct {
	Title     string   `yaml:"title"`
	ID        string   `yaml:"id"`
	Models    []string `yaml:"models,omitempty"`
	Created   string   `yaml:"created"`
	Updated   string   `yaml:"updated"`
	Messages  int      `yaml:"messages"`
	Exported  string   `yaml:"exported"`
	Generator string   `yaml:"generator"`
}

// Export converts a chat to Markdown.
func (e *MarkdownExporter) Export(chat *model.Chat) ([]byte, error) {
	if err := validate(chat); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		fm, err := yaml.Marshal(frontmatter{
			Title:     chat.Title,
			ID:        chat.ID,
			Models:    modelsUsed(chat),
			Created:   chat.CreatedAt.Format(time.RFC3339),
			Updated:   chat.UpdatedAt.Format(time.RFC3339),
			Messages:  len(chat.Messages),
			Exported:  e.options.now().Format(time.RFC3339),
			Generator: "aloha",
		})
		if err != nil {
			return nil, fmt.Errorf("frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# " + escapeMarkdown(chat.Title) + "\n\n")

	for i, msg := range chat.Messages {
		if i > 0 {
			sb.WriteString("---\n\n")
		}
		sb.WriteString(e.formatHeader(msg))

		if msg.Role == model.RoleAssistant {
			th := model.ParseThinking(msg.Content)
			if th.HasReasoning() {
				sb.WriteString("<details>\n<summary>Thinking</summary>\n\n")
				sb.WriteString(strings.TrimSpace(th.Reasoning))
				sb.WriteString("\n\n</details>\n\n")
			}
			if answer := strings.TrimSpace(th.Answer); answer != "" {
				sb.WriteString(answer + "\n\n")
			}
			continue
		}
		sb.WriteString(strings.TrimSpace(msg.Content) + "\n\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns "text/markdown".
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

func (e *MarkdownExporter) formatHeader(msg model.Message) string {
	label := msg.Role.DisplayName()
	if msg.Role == model.RoleAssistant && msg.Model != "" {
		label = fmt.Sprintf("%s (%s)", label, msg.Model)
	}
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		return fmt.Sprintf("### %s · %s\n\n", label, formatShortTimestamp(msg.Timestamp))
	}
	return fmt.Sprintf("### %s\n\n", label)
}

// escapeMarkdown escapes characters that would change heading rendering.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"[", `\[`,
		"]", `\]`,
		"#", `\#`,
	)
	return r.Replace(s)
}
