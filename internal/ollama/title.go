// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTitleRunes caps generated chat titles.
const MaxTitleRunes = 50

const titlePrompt = `Write a short title (3 to 6 words) for a conversation that begins with the message below.
Reply with the title only: no quotes, no punctuation at the end, no explanation.

Message:
`

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?(</think>|$)`)

// GenerateTitle asks model for a short title describing a conversation that
// starts with firstMessage.
func (c *Client) GenerateTitle(ctx context.Context, model, firstMessage string) (string, error) {
	text, err := c.Generate(ctx, GenerateRequest{
		Model:  model,
		Prompt: titlePrompt + firstMessage,
		Options: &Options{
			Temperature: 0.2,
			NumPredict:  64,
		},
	})
	if err != nil {
		return "", err
	}

	title := CleanTitle(text)
	if title == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "model returned an empty title"}
	}
	return title, nil
}

// titleWrapChars are quotes, markdown emphasis and heading marks a model
// wraps around a title.
const titleWrapChars = "\"'`*_#“”‘’ "

// CleanTitle turns a raw model reply into a single-line title: reasoning
// blocks removed, first non-empty line kept, "Title:" prefixes, quotes and
// markdown emphasis stripped, trailing punctuation trimmed, capped at
// MaxTitleRunes.
func CleanTitle(raw string) string {
	raw = thinkBlock.ReplaceAllString(raw, "")

	var line string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	line = strings.Trim(line, titleWrapChars)
	if strings.HasPrefix(strings.ToLower(line), "title:") {
		line = strings.Trim(line[len("title:"):], titleWrapChars)
	}
	line = strings.TrimRight(line, ".!?:;, ")
	line = strings.Join(strings.Fields(line), " ")

	if utf8.RuneCountInString(line) > MaxTitleRunes {
		r := []rune(line)
		line = strings.TrimSpace(string(r[:MaxTitleRunes-1])) + "…"
	}
	return line
}
