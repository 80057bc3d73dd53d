// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
)

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// thinkingPrinter writes streamed reply fragments, styling the text inside
// <think> blocks or dropping it when hide is set. Tags may be split across
// fragments.
type thinkingPrinter struct {
	w        io.Writer
	hide     bool
	thinking bool
	pending  string
	wrote    bool
}

func newThinkingPrinter(w io.Writer) *thinkingPrinter {
	return &thinkingPrinter{w: w}
}

// Write takes one fragment. Its signature matches the session token callback.
func (p *thinkingPrinter) Write(fragment string) {
	s := p.pending + fragment
	p.pending = ""
	for s != "" {
		tag := thinkOpen
		if p.thinking {
			tag = thinkClose
		}
		if i := strings.Index(s, tag); i >= 0 {
			p.emit(s[:i])
			s = s[i+len(tag):]
			p.thinking = !p.thinking
			if !p.thinking {
				// The answer usually starts after a blank line.
				s = strings.TrimLeft(s, "\n")
				if !p.hide && p.wrote {
					fmt.Fprint(p.w, "\n\n")
				}
			}
			continue
		}
		keep := partialSuffix(s, tag)
		p.emit(s[:len(s)-keep])
		p.pending = s[len(s)-keep:]
		return
	}
}

// Close flushes held text and ends the line.
func (p *thinkingPrinter) Close() {
	p.emit(p.pending)
	p.pending = ""
	if p.wrote {
		fmt.Fprintln(p.w)
	}
}

func (p *thinkingPrinter) emit(text string) {
	if !p.wrote {
		text = strings.TrimLeft(text, "\n")
	}
	if text == "" {
		return
	}
	if !p.thinking {
		fmt.Fprint(p.w, text)
		p.wrote = true
		return
	}
	if p.hide {
		return
	}
	// Style line by line so multi-line blocks are not padded to one width.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = ThinkingStyle.Render(line)
		}
	}
	fmt.Fprint(p.w, strings.Join(lines, "\n"))
	p.wrote = true
}

// partialSuffix returns the length of the longest suffix of s that is a
// proper prefix of tag.
func partialSuffix(s, tag string) int {
	for n := min(len(tag)-1, len(s)); n > 0; n-- {
		if strings.HasSuffix(s, tag[:n]) {
			return n
		}
	}
	return 0
}
