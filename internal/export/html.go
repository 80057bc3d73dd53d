// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/aloha-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports chats to a standalone HTML page with embedded CSS.
// Fenced code blocks are highlighted with inline styles so the page has no
// external assets.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a chat to HTML.
func (e *HTMLExporter) Export(chat *model.Chat) ([]byte, error) {
	if err := validate(chat); err != nil {
		return nil, err
	}

	theme := e.theme()
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(chat.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"aloha\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", chat.CreatedAt.Format(time.RFC3339))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(chat))
	}

	sb.WriteString("        <main class=\"chat\">\n")
	for _, msg := range chat.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported from <strong>Aloha</strong> on %s</p>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(themeScript)
	sb.WriteString("</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns "text/html".
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) theme() string {
	if strings.EqualFold(e.options.Theme, "dark") {
		return "dark"
	}
	return "light"
}

// =============================================================================
// RENDERING
// =============================================================================

func (e *HTMLExporter) renderHeader(chat *model.Chat) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(chat.Title))
	sb.WriteString("            <div class=\"metadata\">\n")
	if models := modelsUsed(chat); len(models) > 0 {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n",
			html.EscapeString(strings.Join(models, ", ")))
	}
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(chat.CreatedAt))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(chat.Messages))
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">Theme</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg model.Message) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", html.EscapeString(string(msg.Role)))
	sb.WriteString("                <div class=\"message-header\">\n")
	label := msg.Role.DisplayName()
	if msg.Role == model.RoleAssistant && msg.Model != "" {
		label += " · " + msg.Model
	}
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(label))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp))
	}
	sb.WriteString("                </div>\n")
	sb.WriteString("                <div class=\"message-content\">\n")

	body := msg.Content
	if msg.Role == model.RoleAssistant {
		th := model.ParseThinking(msg.Content)
		if th.HasReasoning() {
			sb.WriteString("<details class=\"thinking\">\n<summary>Thinking</summary>\n")
			sb.WriteString(e.formatContent(th.Reasoning))
			sb.WriteString("\n</details>\n")
		}
		body = th.Answer
	}
	sb.WriteString(e.formatContent(body))

	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

// =============================================================================
// CONTENT FORMATTING
// =============================================================================

var inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")

// formatContent converts message text to HTML. Fenced blocks are highlighted;
// everything else is escaped and split into paragraphs.
func (e *HTMLExporter) formatContent(content string) string {
	var out []string
	var para []string
	var code []string
	lang := ""
	inFence := false

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		text := html.EscapeString(strings.Join(para, "\n"))
		text = inlineCodeRegex.ReplaceAllString(text, "<code class=\"inline-code\">$1</code>")
		text = strings.ReplaceAll(text, "\n", "<br>\n")
		out = append(out, "<p>"+text+"</p>")
		para = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if inFence {
			if strings.HasPrefix(trimmed, "```") {
				out = append(out, e.renderCodeBlock(lang, strings.Join(code, "\n")))
				inFence, code, lang = false, nil, ""
				continue
			}
			code = append(code, line)
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			flushPara()
			inFence = true
			lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			continue
		}
		if trimmed == "" {
			flushPara()
			continue
		}
		para = append(para, line)
	}

	// An unterminated fence still renders as code.
	if inFence {
		out = append(out, e.renderCodeBlock(lang, strings.Join(code, "\n")))
	}
	flushPara()

	return strings.Join(out, "\n")
}

func (e *HTMLExporter) renderCodeBlock(lang, code string) string {
	label := ""
	if lang != "" {
		label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
	}
	return fmt.Sprintf("<div class=\"code-block\">%s%s</div>", label, highlightCode(code, lang, e.theme()))
}

// highlightCode renders code as a highlighted <pre> block. On any lexer or
// formatter failure the code is emitted escaped without colour.
func highlightCode(code, lang, theme string) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "github"
	if theme == "dark" {
		styleName = "monokai"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	plain := "<pre><code>" + html.EscapeString(code) + "</code></pre>"

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return plain
	}
	return buf.String()
}

// =============================================================================
// EMBEDDED ASSETS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", Monaco, Inconsolata, "Fira Code", monospace;
        }

        .light-theme {
            --bg-page: #f9fafb;
            --bg-card: #ffffff;
            --bg-header: #eef2f7;
            --text: #1f2937;
            --text-muted: #6b7280;
            --border: #e5e7eb;
            --user-bg: #eff6ff;
            --assistant-bg: #ffffff;
            --accent: #2563eb;
        }

        .dark-theme {
            --bg-page: #111827;
            --bg-card: #1f2937;
            --bg-header: #374151;
            --text: #f3f4f6;
            --text-muted: #9ca3af;
            --border: #4b5563;
            --user-bg: #1e3a5f;
            --assistant-bg: #1f2937;
            --accent: #60a5fa;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text);
            background: var(--bg-page);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-card); border-radius: 12px; overflow: hidden; }
        .header { padding: 28px 32px; background: var(--bg-header); border-bottom: 1px solid var(--border); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); align-items: center; }
        .theme-toggle { margin-left: auto; padding: 4px 12px; border: 1px solid var(--border); border-radius: 6px; background: var(--bg-card); color: var(--text); cursor: pointer; }

        .chat { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 16px 20px; border-radius: 10px; border: 1px solid var(--border); }
        .user-message { background: var(--user-bg); }
        .assistant-message { background: var(--assistant-bg); }
        .system-message { background: var(--bg-header); font-style: italic; }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 8px; font-size: 13px; }
        .role-label { font-weight: 600; color: var(--accent); }
        .timestamp { color: var(--text-muted); }
        .message-content p { margin: 8px 0; }

        .thinking { margin: 8px 0 12px; padding: 8px 12px; border-left: 3px solid var(--border); color: var(--text-muted); }
        .thinking summary { cursor: pointer; font-weight: 600; }

        .inline-code { font-family: var(--font-mono); font-size: 0.9em; padding: 1px 5px; border-radius: 4px; background: var(--bg-header); }
        .code-block { margin: 12px 0; border-radius: 8px; overflow: hidden; border: 1px solid var(--border); }
        .code-block pre { padding: 12px 16px; overflow-x: auto; font-family: var(--font-mono); font-size: 13px; }
        .code-lang { padding: 4px 12px; font-size: 12px; color: var(--text-muted); background: var(--bg-header); }

        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); border-top: 1px solid var(--border); text-align: center; }

        @media (max-width: 640px) {
            body { padding: 0; }
            .chat, .header { padding: 16px; }
        }
    </style>
`

const themeScript = `    <script>
        function toggleTheme() {
            const body = document.body;
            const next = body.classList.contains('dark-theme') ? 'light' : 'dark';
            body.classList.remove('dark-theme', 'light-theme');
            body.classList.add(next + '-theme');
            localStorage.setItem('aloha-export-theme', next);
        }

        document.addEventListener('DOMContentLoaded', function() {
            const saved = localStorage.getItem('aloha-export-theme');
            if (saved) {
                document.body.classList.remove('dark-theme', 'light-theme');
                document.body.classList.add(saved + '-theme');
            }
        });
    </script>
`
