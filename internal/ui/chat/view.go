// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/ui/styles"
	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// Empty-state copy.
const (
	EmptyTitle    = "Aloha"
	EmptySubtitle = "Type your message below to begin chatting"
)

// View renders the chat view.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	if len(m.messages) == 0 {
		sb.WriteString(m.renderEmpty())
	} else {
		sb.WriteString(m.viewport.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(m.renderInput())
	sb.WriteString("\n")
	sb.WriteString(m.renderHints())

	return sb.String()
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(util.TruncateWidth(m.title, max(m.width/2, 10)))
	modelName := m.session.Model()
	if modelName == "" {
		modelName = "no model"
	}
	right := m.theme.HeaderModel.Render(modelName)

	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(right)-2, 1)
	return m.theme.Header.Width(max(m.width, 1)).Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) renderEmpty() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.EmptyTitle.Render(EmptyTitle),
		"",
		m.theme.EmptySubtitle.Render(EmptySubtitle),
	)
	return lipgloss.Place(max(m.width, 1), m.viewport.Height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return m.theme.ErrorText.Render(styles.StatusIndicators.Error + " " + m.err.Error())
	case m.pending:
		return m.spinner.View() + m.theme.Hint.Render(" generating... (Esc to stop)")
	case m.notice != "":
		return m.theme.SuccessText.Render(m.notice)
	}
	return ""
}

func (m Model) renderInput() string {
	style := m.theme.InputFocused
	if m.pending {
		style = m.theme.InputBlocked
	}
	return style.Width(max(m.width-2, 10)).Render(m.input.View())
}

func (m Model) renderHints() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.Hint.Render(h.Key+" "+h.Desc))
	}
	return strings.Join(parts, m.theme.Hint.Render(" · "))
}

// refresh re-renders the message list into the viewport.
func (m *Model) refresh() {
	if m.width <= 0 {
		return
	}
	m.viewport.SetContent(m.renderMessages())
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

func (m Model) renderMessages() string {
	width := max(m.width-2, 20)

	var blocks []string
	for i, msg := range m.messages {
		last := i == len(m.messages)-1
		blocks = append(blocks, m.renderMessage(msg, width, last))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int, last bool) string {
	var sb strings.Builder
	sb.WriteString(m.renderMessageHeader(msg))
	sb.WriteString("\n")

	switch msg.Role {
	case model.RoleAssistant:
		sb.WriteString(m.renderReply(msg, width, last))
	default:
		sb.WriteString(m.theme.MessageBody.Width(width).Render(msg.Content))
	}
	return sb.String()
}

func (m Model) renderMessageHeader(msg model.Message) string {
	var name string
	switch msg.Role {
	case model.RoleUser:
		name = m.theme.UserHeader.Render(msg.Role.DisplayName())
	case model.RoleAssistant:
		name = m.theme.AssistantHeader.Render(msg.Role.DisplayName())
	default:
		name = m.theme.SystemHeader.Render(msg.Role.DisplayName())
	}

	meta := []string{}
	if msg.Role == model.RoleAssistant && msg.Model != "" {
		meta = append(meta, msg.Model)
	}
	if !msg.Timestamp.IsZero() {
		meta = append(meta, util.RelativeTime(msg.Timestamp, m.now()))
	}
	if len(meta) == 0 {
		return name
	}
	return name + " " + m.theme.Timestamp.Render(strings.Join(meta, " · "))
}

func (m Model) renderReply(msg model.Message, width int, last bool) string {
	streaming := m.pending && last
	th := model.ParseThinking(msg.Content)

	var parts []string
	if th.HasReasoning() || th.InProgress {
		parts = append(parts, m.renderThinking(th, width, streaming))
	}

	switch {
	case th.Answer != "":
		parts = append(parts, m.markdown.render(th.Answer, width))
	case streaming && !th.InProgress:
		parts = append(parts, m.spinner.View())
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderThinking(th model.Thinking, width int, streaming bool) string {
	if th.InProgress && streaming {
		header := m.spinner.View() + m.theme.ThinkingHeader.Render(" Thinking...")
		if !m.showThinking || th.Reasoning == "" {
			return header
		}
		return header + "\n" + m.theme.ThinkingBody.Width(width-2).Render(th.Reasoning)
	}

	if !m.showThinking {
		lines := strings.Count(th.Reasoning, "\n") + 1
		return m.theme.ThinkingHeader.Render("▸ Thinking (" + strconv.Itoa(lines) + " lines, Ctrl+T to expand)")
	}
	return m.theme.ThinkingHeader.Render("▾ Thinking") + "\n" +
		m.theme.ThinkingBody.Width(width-2).Render(th.Reasoning)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// markdownRenderCacheSize bounds the rendered-output cache.
const markdownRenderCacheSize = 256

// markdownRenderer holds a glamour renderer for the current wrap width and
// caches rendered output by source text.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdownRenderer(style string) *markdownRenderer {
	return &markdownRenderer{style: style, cache: map[string]string{}}
}

// render returns content as styled markdown, or the plain text when glamour
// fails.
func (r *markdownRenderer) render(content string, width int) string {
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		r.renderer = tr
		r.width = width
		clear(r.cache)
	}

	if out, ok := r.cache[content]; ok {
		return out
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	if len(r.cache) >= markdownRenderCacheSize {
		clear(r.cache)
	}
	r.cache[content] = out
	return out
}
