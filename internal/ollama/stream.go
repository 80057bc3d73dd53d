// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// maxPendingBytes bounds a held partial line. Longer partials are dropped.
const maxPendingBytes = 1 << 20

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes a newline-delimited JSON chat stream.
//
// A line that does not parse is held and prefixed to the next line before
// that one is parsed, so an object split across two lines still decodes.
// The held partial is bounded by maxPendingBytes and dropped at end of
// stream if it never completes.
type StreamReader struct {
	reader      *bufio.Reader
	pending     []byte
	accumulator strings.Builder
	tokenCount  int
	model       string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each chunk that
// carries content or completes the stream. Blocks until the stream is done,
// fails, or ctx is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		if ctx.Err() != nil {
			return transportError(ctx, ctx.Err())
		}

		line, readErr := s.reader.ReadBytes('\n')
		if len(line) > 0 {
			chunk, err := s.decodeLine(line)
			if err != nil {
				return err
			}
			if chunk != nil {
				callback(*chunk)
				if chunk.Done {
					return nil
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				// Anything still pending never became valid JSON.
				s.pending = nil
				return nil
			}
			if ctx.Err() != nil {
				return transportError(ctx, ctx.Err())
			}
			return &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: readErr}
		}
	}
}

// decodeLine parses one line, joining it to any held partial. It returns a
// nil chunk for lines that carry nothing to deliver.
func (s *StreamReader) decodeLine(line []byte) (*StreamChunk, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var response ChatResponse
	candidate := line
	if len(s.pending) > 0 {
		candidate = append(s.pending[:len(s.pending):len(s.pending)], line...)
	}

	if err := json.Unmarshal(candidate, &response); err != nil {
		// The held partial may have been garbage; give this line its own try.
		response = ChatResponse{}
		if len(s.pending) == 0 || json.Unmarshal(line, &response) != nil {
			s.hold(candidate)
			return nil, nil
		}
	}
	s.pending = nil

	if response.Error != "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to generate response: " + response.Error}
	}

	if response.Model != "" {
		s.model = response.Model
	}

	content := response.Message.Content
	if content == "" && !response.Done {
		return nil, nil
	}
	if content != "" {
		s.accumulator.WriteString(content)
		s.tokenCount++
	}

	chunk := &StreamChunk{
		Content:    content,
		Done:       response.Done,
		DoneReason: response.DoneReason,
		Model:      s.model,
	}

	if response.Done {
		chunk.TotalDuration = time.Duration(response.TotalDuration)
		chunk.LoadDuration = time.Duration(response.LoadDuration)
		chunk.PromptEvalDuration = time.Duration(response.PromptEvalDuration)
		chunk.EvalDuration = time.Duration(response.EvalDuration)
		chunk.PromptTokens = response.PromptEvalCount
		chunk.CompletionTokens = response.EvalCount
	}

	return chunk, nil
}

func (s *StreamReader) hold(partial []byte) {
	if len(partial) > maxPendingBytes {
		s.pending = nil
		return
	}
	s.pending = append([]byte(nil), partial...)
}

// GetAccumulated returns all content delivered so far.
func (s *StreamReader) GetAccumulated() string {
	return s.accumulator.String()
}

// GetTokenCount returns the number of content chunks received.
func (s *StreamReader) GetTokenCount() int {
	return s.tokenCount
}

// GetModel returns the model name reported by the stream.
func (s *StreamReader) GetModel() string {
	return s.model
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// StreamStats holds statistics collected during streaming.
type StreamStats struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	// Durations reported by Ollama
	TotalDuration time.Duration
	EvalDuration  time.Duration

	PromptTokens     int
	CompletionTokens int

	TTFT            time.Duration
	TokensPerSecond float64
}

// NewStreamStats creates a new StreamStats with start time set.
func NewStreamStats() *StreamStats {
	return &StreamStats{StartTime: time.Now()}
}

// RecordFirstToken marks the time of first token arrival.
func (s *StreamStats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize copies the server-side figures from the final chunk.
func (s *StreamStats) Finalize(chunk StreamChunk) {
	s.EndTime = time.Now()
	s.TotalDuration = chunk.TotalDuration
	s.EvalDuration = chunk.EvalDuration
	s.PromptTokens = chunk.PromptTokens
	s.CompletionTokens = chunk.CompletionTokens
	s.TokensPerSecond = chunk.TokensPerSecond()
}

// Format returns a one-line summary, e.g. "1.2s | 42 tokens | 35.0 tok/s | TTFT 180ms".
func (s *StreamStats) Format() string {
	total := s.TotalDuration
	if total == 0 && !s.EndTime.IsZero() {
		total = s.EndTime.Sub(s.StartTime)
	}
	var dur string
	if total < time.Second {
		dur = fmt.Sprintf("%dms", total.Milliseconds())
	} else {
		dur = fmt.Sprintf("%.1fs", total.Seconds())
	}
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s | TTFT %dms",
		dur, s.CompletionTokens, s.TokensPerSecond, s.TTFT.Milliseconds())
}
