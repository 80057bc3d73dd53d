// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sound rings the terminal bell for message and typing cues.
package sound

import (
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/aloha-tui/internal/config"
)

// bell is the ASCII BEL control character.
const bell = "\a"

// DefaultTypingInterval is the shortest gap between two typing bells.
const DefaultTypingInterval = 750 * time.Millisecond

// Player plays cues according to the current settings.
// It is safe for concurrent use.
type Player struct {
	mu       sync.Mutex
	out      io.Writer
	settings config.Settings
	typing   *rate.Limiter
}

// NewPlayer creates a player writing to the terminal's stderr.
func NewPlayer(settings config.Settings) *Player {
	return NewPlayerWithWriter(os.Stderr, settings, DefaultTypingInterval)
}

// NewPlayerWithWriter creates a player writing bells to out. Typing bells
// are throttled to one per interval.
func NewPlayerWithWriter(out io.Writer, settings config.Settings, interval time.Duration) *Player {
	return &Player{
		out:      out,
		settings: settings,
		typing:   rate.NewLimiter(rate.Every(interval), 1),
	}
}

// SetSettings swaps the settings the player consults.
func (p *Player) SetSettings(s config.Settings) {
	p.mu.Lock()
	p.settings = s
	p.mu.Unlock()
}

// MessageSent rings when sounds and message sounds are enabled.
func (p *Player) MessageSent() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settings.MessageSoundOn() {
		io.WriteString(p.out, bell)
	}
}

// Typing rings when sounds and typing sounds are enabled, at most once per
// interval.
func (p *Player) Typing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settings.TypingSoundOn() && p.typing.Allow() {
		io.WriteString(p.out, bell)
	}
}
