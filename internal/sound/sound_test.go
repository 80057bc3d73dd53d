// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sound

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/aloha-tui/internal/config"
)

func TestMessageSent(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		message bool
		want    int
	}{
		{"all on", true, true, 1},
		{"master off", false, true, 0},
		{"message off", true, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := config.DefaultSettings()
			s.SoundEnabled = tc.enabled
			s.MessageSound = tc.message

			NewPlayerWithWriter(&buf, s, time.Hour).MessageSent()
			if got := strings.Count(buf.String(), "\a"); got != tc.want {
				t.Errorf("bells = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTyping_Throttled(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayerWithWriter(&buf, config.DefaultSettings(), time.Hour)

	for i := 0; i < 10; i++ {
		p.Typing()
	}
	if got := strings.Count(buf.String(), "\a"); got != 1 {
		t.Errorf("bells = %d, want 1 for a burst", got)
	}

	// Message bells are not throttled.
	p.MessageSent()
	p.MessageSent()
	if got := strings.Count(buf.String(), "\a"); got != 3 {
		t.Errorf("bells = %d, want 3", got)
	}
}

func TestTyping_RespectsSettings(t *testing.T) {
	var buf bytes.Buffer
	s := config.DefaultSettings()
	s.TypingSound = false
	p := NewPlayerWithWriter(&buf, s, time.Millisecond)

	p.Typing()
	if buf.Len() != 0 {
		t.Error("typing bell should be off")
	}

	s.TypingSound = true
	p.SetSettings(s)
	p.Typing()
	if buf.Len() != 1 {
		t.Error("typing bell should ring after settings change")
	}
}
