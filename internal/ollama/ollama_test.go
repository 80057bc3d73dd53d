// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessages(t *testing.T) {
	tests := []struct {
		msg  Message
		role string
	}{
		{NewUserMessage("Hello"), "user"},
		{NewAssistantMessage("Hi"), "assistant"},
		{NewSystemMessage("Be brief"), "system"},
	}

	for _, tc := range tests {
		if tc.msg.Role != tc.role {
			t.Errorf("Role = %q, want %q", tc.msg.Role, tc.role)
		}
		if tc.msg.Content == "" {
			t.Errorf("Content for %s should not be empty", tc.role)
		}
	}
}

// =============================================================================
// SIZE HELPERS
// =============================================================================

func TestSizeGB(t *testing.T) {
	const gib = 1024 * 1024 * 1024
	tests := []struct {
		bytes int64
		want  int
	}{
		{0, 0},
		{gib / 3, 0},
		{gib, 1},
		{4*gib + gib/2, 5},
		{4*gib + 2*gib/5, 4},
	}

	for _, tc := range tests {
		if got := SizeGB(tc.bytes); got != tc.want {
			t.Errorf("SizeGB(%d) = %d, want %d", tc.bytes, got, tc.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(0); got != "0 B" {
		t.Errorf("FormatSize(0) = %q", got)
	}
	if got := FormatSize(4_100_000_000); got != "4.1 GB" {
		t.Errorf("FormatSize(4.1e9) = %q, want '4.1 GB'", got)
	}
	m := ModelInfo{Size: 1_500_000}
	if got := m.FormatSize(); got != "1.5 MB" {
		t.Errorf("ModelInfo.FormatSize = %q, want '1.5 MB'", got)
	}
}

func TestPullProgress_Fraction(t *testing.T) {
	tests := []struct {
		p    PullProgress
		want float64
	}{
		{PullProgress{Total: 0, Completed: 10}, 0},
		{PullProgress{Total: 100, Completed: 25}, 0.25},
		{PullProgress{Total: 100, Completed: 150}, 1},
	}
	for _, tc := range tests {
		if got := tc.p.Fraction(); got != tc.want {
			t.Errorf("Fraction(%+v) = %v, want %v", tc.p, got, tc.want)
		}
	}
	if !(PullProgress{Status: "success"}).IsSuccess() {
		t.Error("IsSuccess should be true for status 'success'")
	}
}

func TestStreamChunk_TokensPerSecond(t *testing.T) {
	tests := []struct {
		name  string
		chunk StreamChunk
		want  float64
	}{
		{"normal", StreamChunk{CompletionTokens: 100, EvalDuration: time.Second}, 100},
		{"zero duration", StreamChunk{CompletionTokens: 100}, 0},
		{"fast", StreamChunk{CompletionTokens: 1000, EvalDuration: 100 * time.Millisecond}, 10000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.chunk.TokensPerSecond(); got != tc.want {
				t.Errorf("TokensPerSecond() = %v, want %v", got, tc.want)
			}
		})
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestClientError_Predicates(t *testing.T) {
	notFound := modelNotFound("llama3.2:1b")
	if !IsModelNotFound(notFound) {
		t.Error("IsModelNotFound should match a model-specific error")
	}
	if IsNotRunning(notFound) || IsTimeout(notFound) || IsCanceled(notFound) {
		t.Error("model-not-found error matched another predicate")
	}

	wrapped := fmt.Errorf("send: %w", &ClientError{Type: ErrTypeNotRunning, Message: "x", Cause: errors.New("dial tcp")})
	if !IsNotRunning(wrapped) {
		t.Error("IsNotRunning should see through wrapping")
	}

	if IsModelNotFound(errors.New("plain")) {
		t.Error("plain error should not match")
	}
}

func TestTransportError_CancelBeatsTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := transportError(ctx, context.Canceled)
	if !IsCanceled(err) {
		t.Errorf("expected canceled error, got %v", err)
	}
	if IsTimeout(err) {
		t.Error("an abort must not be reported as a timeout")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("canceled error should unwrap to context.Canceled")
	}

	deadline, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()
	if err := transportError(deadline, context.DeadlineExceeded); !IsTimeout(err) {
		t.Errorf("expected timeout error, got %v", err)
	}

	if err := transportError(context.Background(), errors.New("connection refused")); !IsNotRunning(err) {
		t.Errorf("expected not-running error, got %v", err)
	}
}

// =============================================================================
// TITLE CLEANUP
// =============================================================================

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Go Concurrency Basics", "Go Concurrency Basics"},
		{"quoted", `"Baking Sourdough Bread."`, "Baking Sourdough Bread"},
		{"prefix", "Title: Travel Plans for Japan", "Travel Plans for Japan"},
		{"markdown", "**Rust vs Go**", "Rust vs Go"},
		{"bold prefix", "**Title:** Rust borrow checker", "Rust borrow checker"},
		{"prefix inside bold", "**Title: Rust Lifetimes**", "Rust Lifetimes"},
		{"quoted prefix", `"title: Sourdough Starter"`, "Sourdough Starter"},
		{"multi-line", "\n\nSQL Joins Explained\nThis title covers...", "SQL Joins Explained"},
		{"thinking", "<think>the user asks about cats</think>\nCat Care Tips", "Cat Care Tips"},
		{"unclosed thinking", "<think>still going", ""},
		{"empty", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTitle(tc.raw); got != tc.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCleanTitle_Truncates(t *testing.T) {
	long := "An Extremely Long Title That Keeps Going Well Past The Limit Of Fifty Runes"
	got := CleanTitle(long)
	if n := len([]rune(got)); n > MaxTitleRunes {
		t.Errorf("title has %d runes, want <= %d", n, MaxTitleRunes)
	}
}

// =============================================================================
// STATS TESTS
// =============================================================================

func TestStreamStats(t *testing.T) {
	stats := NewStreamStats()
	stats.RecordFirstToken()
	first := stats.FirstTokenTime
	stats.RecordFirstToken()
	if !stats.FirstTokenTime.Equal(first) {
		t.Error("first token time should only be recorded once")
	}

	stats.Finalize(StreamChunk{
		Done:             true,
		TotalDuration:    1500 * time.Millisecond,
		EvalDuration:     time.Second,
		CompletionTokens: 42,
		PromptTokens:     7,
	})
	if stats.TokensPerSecond != 42 {
		t.Errorf("TokensPerSecond = %v, want 42", stats.TokensPerSecond)
	}

	got := stats.Format()
	for _, want := range []string{"1.5s", "42 tokens", "42.0 tok/s", "TTFT "} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() = %q, missing %q", got, want)
		}
	}
}

func TestStreamStats_FallsBackToWallClock(t *testing.T) {
	stats := NewStreamStats()
	stats.Finalize(StreamChunk{Done: true})
	if got := stats.Format(); !strings.HasSuffix(strings.SplitN(got, " | ", 2)[0], "ms") {
		t.Errorf("Format() = %q, want a millisecond duration", got)
	}
}
