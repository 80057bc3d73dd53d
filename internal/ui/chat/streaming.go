// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

const (
	defaultBatchSize  = 15
	defaultFrameDelay = 33 * time.Millisecond
)

// StreamingBuffer collects reply fragments written by the send goroutine and
// hands them to the Bubble Tea loop in batches. A batch is released once it
// holds batchSize fragments or frameDelay has passed since the last release.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize  int
	frameDelay time.Duration
}

// NewStreamingBuffer creates a buffer with the default batch size and a
// ~30fps frame delay.
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithConfig(defaultBatchSize, defaultFrameDelay)
}

// NewStreamingBufferWithConfig creates a buffer with explicit thresholds.
// Non-positive values fall back to the defaults.
func NewStreamingBufferWithConfig(batchSize int, frameDelay time.Duration) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if frameDelay <= 0 {
		frameDelay = defaultFrameDelay
	}
	return &StreamingBuffer{
		batchSize:  batchSize,
		frameDelay: frameDelay,
		lastFlush:  time.Now(),
	}
}

// Write adds a fragment. Safe to call from the send goroutine.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush returns the buffered text when a batch is due.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && time.Since(sb.lastFlush) < sb.frameDelay {
		return "", false
	}
	return sb.takeLocked(), true
}

// ForceFlush returns everything buffered regardless of thresholds.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.takeLocked(), true
}

func (sb *StreamingBuffer) takeLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return content
}

// Reset drops buffered text. Used when a new send starts.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of fragments waiting to be flushed.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

// =============================================================================
// STREAMING TICK
// =============================================================================

// streamTickCmd schedules the next StreamTickMsg at the render frame rate.
func streamTickCmd() tea.Cmd {
	return tea.Tick(defaultFrameDelay, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
