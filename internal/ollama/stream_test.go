// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, body string) ([]StreamChunk, error) {
	t.Helper()
	var chunks []StreamChunk
	err := NewStreamReader(strings.NewReader(body)).Process(context.Background(), func(c StreamChunk) {
		chunks = append(chunks, c)
	})
	return chunks, err
}

func contentOf(chunks []StreamChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Content)
	}
	return b.String()
}

func TestStreamReader_Basic(t *testing.T) {
	body := `{"model":"llama3.2","message":{"role":"assistant","content":"Hel"},"done":false}
{"model":"llama3.2","message":{"role":"assistant","content":"lo"},"done":false}
{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","eval_count":2,"eval_duration":1000000000,"prompt_eval_count":7}
`
	chunks, err := collect(t, body)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := contentOf(chunks); got != "Hello" {
		t.Errorf("content = %q, want 'Hello'", got)
	}

	last := chunks[len(chunks)-1]
	if !last.Done {
		t.Fatal("last chunk should be done")
	}
	if last.DoneReason != "stop" || last.CompletionTokens != 2 || last.PromptTokens != 7 {
		t.Errorf("final stats = %+v", last)
	}
	if last.EvalDuration != time.Second {
		t.Errorf("EvalDuration = %v", last.EvalDuration)
	}
	if last.Model != "llama3.2" {
		t.Errorf("Model = %q", last.Model)
	}
}

func TestStreamReader_SkipsBlankAndEmptyContent(t *testing.T) {
	body := "\n   \n" +
		`{"message":{"role":"assistant","content":""},"done":false}` + "\n" +
		`{"message":{"role":"assistant","content":"x"},"done":false}` + "\n"

	chunks, err := collect(t, body)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Content != "x" {
		t.Errorf("chunks = %+v, want one chunk with 'x'", chunks)
	}
}

func TestStreamReader_JoinsSplitLine(t *testing.T) {
	// One object broken across a newline is held and completed by the next line.
	body := `{"message":{"role":"assistant","con` + "\n" +
		`tent":"joined"},"done":false}` + "\n" +
		`{"message":{"role":"assistant","content":"!"},"done":true}` + "\n"

	chunks, err := collect(t, body)
	if err != nil {
		t.Fatal(err)
	}
	if got := contentOf(chunks); got != "joined!" {
		t.Errorf("content = %q, want 'joined!'", got)
	}
}

func TestStreamReader_GarbageThenValid(t *testing.T) {
	body := "not json at all\n" +
		`{"message":{"role":"assistant","content":"ok"},"done":false}` + "\n"

	chunks, err := collect(t, body)
	if err != nil {
		t.Fatal(err)
	}
	if got := contentOf(chunks); got != "ok" {
		t.Errorf("content = %q, want 'ok'", got)
	}
}

func TestStreamReader_NoTrailingNewline(t *testing.T) {
	body := `{"message":{"role":"assistant","content":"a"},"done":false}` + "\n" +
		`{"message":{"role":"assistant","content":"b"},"done":true}`

	chunks, err := collect(t, body)
	if err != nil {
		t.Fatal(err)
	}
	if got := contentOf(chunks); got != "ab" {
		t.Errorf("content = %q, want 'ab'", got)
	}
}

func TestStreamReader_DropsUnfinishedPartialAtEOF(t *testing.T) {
	body := `{"message":{"role":"assistant","content":"a"},"done":false}` + "\n" +
		`{"message":{"role":"assis`

	chunks, err := collect(t, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := contentOf(chunks); got != "a" {
		t.Errorf("content = %q, want 'a'", got)
	}
}

func TestStreamReader_DropsOversizedPartial(t *testing.T) {
	// The head of an object larger than the hold limit, then its tail, then a
	// valid line. Joining head and tail would decode; dropping the head must
	// leave only the valid line.
	head := `{"message":{"role":"assistant","content":"` + strings.Repeat("x", maxPendingBytes) + "\n"
	tail := `"},"done":false}` + "\n"
	valid := `{"message":{"role":"assistant","content":"ok"},"done":false}` + "\n"

	chunks, err := collect(t, head+tail+valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "ok" {
		t.Errorf("got %d chunks (content %d bytes), want only 'ok'", len(chunks), len(contentOf(chunks)))
	}
}

func TestStreamReader_ErrorLine(t *testing.T) {
	body := `{"message":{"role":"assistant","content":"partial"},"done":false}` + "\n" +
		`{"error":"model ran out of memory"}` + "\n"

	chunks, err := collect(t, body)
	if err == nil {
		t.Fatal("expected error from error line")
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("error = %v", err)
	}
	if contentOf(chunks) != "partial" {
		t.Error("content before the error should have been delivered")
	}
}

func TestStreamReader_StopsAtDone(t *testing.T) {
	body := `{"message":{"role":"assistant","content":"a"},"done":true}` + "\n" +
		`{"message":{"role":"assistant","content":"ignored"},"done":false}` + "\n"

	chunks, err := collect(t, body)
	if err != nil {
		t.Fatal(err)
	}
	if got := contentOf(chunks); got != "a" {
		t.Errorf("content = %q, want 'a'", got)
	}
}

func TestStreamReader_Accumulates(t *testing.T) {
	body := `{"model":"m","message":{"role":"assistant","content":"x"},"done":false}` + "\n" +
		`{"model":"m","message":{"role":"assistant","content":"y"},"done":true}` + "\n"

	r := NewStreamReader(strings.NewReader(body))
	if err := r.Process(context.Background(), func(StreamChunk) {}); err != nil {
		t.Fatal(err)
	}
	if r.GetAccumulated() != "xy" || r.GetTokenCount() != 2 || r.GetModel() != "m" {
		t.Errorf("accumulated=%q tokens=%d model=%q", r.GetAccumulated(), r.GetTokenCount(), r.GetModel())
	}
}

func TestStreamReader_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- NewStreamReader(pr).Process(ctx, func(c StreamChunk) {
			cancel()
		})
	}()

	pw.Write([]byte(`{"message":{"role":"assistant","content":"a"},"done":false}` + "\n"))

	select {
	case err := <-done:
		if !IsCanceled(err) {
			t.Errorf("expected canceled error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Process did not return after cancel")
	}
}
