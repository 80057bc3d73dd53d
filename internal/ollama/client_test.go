// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient starts a fake Ollama server serving mux.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: server.URL + "/", Timeout: 5 * time.Second})
}

// =============================================================================
// CONFIGURATION TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}

	c = NewClientWithConfig(&ClientConfig{BaseURL: "http://example:1234///"})
	if c.BaseURL() != "http://example:1234" {
		t.Errorf("BaseURL() = %q, want trailing slashes trimmed", c.BaseURL())
	}
}

// =============================================================================
// MODEL OPERATION TESTS
// =============================================================================

func TestCheckRunning(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})
	c := newTestClient(t, mux)

	if err := c.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning() error = %v", err)
	}
}

func TestCheckRunning_NotRunning(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url, Timeout: time.Second})
	err := c.CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("CheckRunning() error = %v, want not running", err)
	}
}

func TestListModels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Write([]byte(`{"models":[
			{"name":"llama3.2:latest","model":"llama3.2:latest","size":2019393189,"digest":"a80c4f17acd5","details":{"family":"llama","parameter_size":"3.2B","quantization_level":"Q4_K_M"}},
			{"name":"qwen2.5:7b","size":4683087332}
		]}`))
	})
	c := newTestClient(t, mux)

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}
	if models[0].Name != "llama3.2:latest" || models[0].Details.ParameterSize != "3.2B" {
		t.Errorf("models[0] = %+v", models[0])
	}
	if SizeGB(models[1].Size) != 4 {
		t.Errorf("SizeGB = %d, want 4", SizeGB(models[1].Size))
	}
}

func TestListModels_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"disk on fire"}`))
	})
	c := newTestClient(t, mux)

	_, err := c.ListModels(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "failed to fetch installed models") || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestShowModel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/show", func(w http.ResponseWriter, r *http.Request) {
		var req ShowModelRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3.2" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"model 'x' not found"}`))
			return
		}
		w.Write([]byte(`{"license":"MIT","parameters":"temperature 0.7","template":"{{ .Prompt }}","details":{"family":"llama"},"model_info":{"general.architecture":"llama"}}`))
	})
	c := newTestClient(t, mux)

	info, err := c.ShowModel(context.Background(), "llama3.2")
	if err != nil {
		t.Fatalf("ShowModel() error = %v", err)
	}
	if info.License != "MIT" || info.Details.Family != "llama" {
		t.Errorf("info = %+v", info)
	}
	if info.ModelInfo["general.architecture"] != "llama" {
		t.Errorf("ModelInfo = %v", info.ModelInfo)
	}

	_, err = c.ShowModel(context.Background(), "missing")
	if !IsModelNotFound(err) {
		t.Errorf("ShowModel(missing) error = %v, want model not found", err)
	}
}

func TestPullModel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		var req PullRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gemma3:1b" || !req.Stream {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"status":"pulling manifest"}
{"status":"downloading","digest":"sha256:abc","total":100,"completed":50}
{"status":"downloading","digest":"sha256:abc","total":100,"completed":100}
{"status":"success"}
`))
	})
	c := newTestClient(t, mux)

	var progress []PullProgress
	err := c.PullModel(context.Background(), "gemma3:1b", func(p PullProgress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("PullModel() error = %v", err)
	}
	if len(progress) != 4 {
		t.Fatalf("got %d progress updates, want 4", len(progress))
	}
	if progress[1].Fraction() != 0.5 {
		t.Errorf("Fraction() = %v, want 0.5", progress[1].Fraction())
	}
	if !progress[3].IsSuccess() {
		t.Error("last update should be success")
	}
}

func TestPullModel_ErrorLine(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pulling manifest"}
{"error":"pull model manifest: file does not exist"}
`))
	})
	c := newTestClient(t, mux)

	err := c.PullModel(context.Background(), "nope", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "failed to pull model: ") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestPullModel_OversizedLine(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pulling manifest"}` + "\n"))
		w.Write([]byte(`{"status":"` + strings.Repeat("x", maxPendingBytes+1) + `"}` + "\n"))
	})
	c := newTestClient(t, mux)

	err := c.PullModel(context.Background(), "gemma3:1b", nil)
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrTypeInvalidResponse {
		t.Fatalf("error = %v, want invalid response", err)
	}
	if IsNotRunning(err) {
		t.Error("an unreadable progress line must not report Ollama as down")
	}
}

func TestDeleteModel(t *testing.T) {
	var gotMethod, gotModel string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/delete", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		var req DeleteRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		if req.Model == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	})
	c := newTestClient(t, mux)

	if err := c.DeleteModel(context.Background(), "llama3.2"); err != nil {
		t.Fatalf("DeleteModel() error = %v", err)
	}
	if gotMethod != http.MethodDelete || gotModel != "llama3.2" {
		t.Errorf("method=%s model=%s", gotMethod, gotModel)
	}

	if err := c.DeleteModel(context.Background(), "missing"); !IsModelNotFound(err) {
		t.Errorf("DeleteModel(missing) error = %v, want model not found", err)
	}
}

func TestRunningModels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ps", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest","size":3000000000,"size_vram":3000000000,"expires_at":"2030-01-01T00:00:00Z"}]}`))
	})
	c := newTestClient(t, mux)

	running, err := c.RunningModels(context.Background())
	if err != nil {
		t.Fatalf("RunningModels() error = %v", err)
	}
	if len(running) != 1 || running[0].Name != "llama3.2:latest" || running[0].SizeVRAM != 3000000000 {
		t.Errorf("running = %+v", running)
	}
}

// =============================================================================
// STREAMING CHAT TESTS
// =============================================================================

func TestChatStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !req.Stream || req.Model != "llama3.2" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}
		if req.Messages[0].Role != "system" {
			t.Errorf("first role = %q, want system", req.Messages[0].Role)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"Hi"},"done":false}
{"model":"llama3.2","message":{"role":"assistant","content":" there"},"done":false}
{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"eval_count":2}
`))
	})
	c := newTestClient(t, mux)

	var got strings.Builder
	var done bool
	err := c.ChatStream(context.Background(), ChatRequest{
		Model:    "llama3.2",
		Messages: []Message{NewSystemMessage("be brief"), NewUserMessage("hello")},
	}, func(chunk StreamChunk) {
		got.WriteString(chunk.Content)
		done = chunk.Done
	})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	if got.String() != "Hi there" {
		t.Errorf("content = %q, want 'Hi there'", got.String())
	}
	if !done {
		t.Error("final chunk should be done")
	}
}

func TestChatStream_NoModel(t *testing.T) {
	c := NewClient()
	err := c.ChatStream(context.Background(), ChatRequest{}, func(StreamChunk) {})
	if !IsModelNotFound(err) {
		t.Errorf("error = %v, want model not found", err)
	}
}

func TestChatStream_ModelNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"nope\" not found, try pulling it first"}`))
	})
	c := newTestClient(t, mux)

	err := c.ChatStream(context.Background(), ChatRequest{Model: "nope"}, func(StreamChunk) {})
	if !IsModelNotFound(err) {
		t.Errorf("error = %v, want model not found", err)
	}
}

func TestChatStream_CancelMidStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"first"},"done":false}` + "\n"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	c := newTestClient(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tokens int
	err := c.ChatStream(ctx, ChatRequest{Model: "llama3.2"}, func(chunk StreamChunk) {
		tokens++
		cancel()
	})
	if !IsCanceled(err) {
		t.Errorf("error = %v, want canceled", err)
	}
	if IsTimeout(err) {
		t.Error("a cancelled stream must not report a timeout")
	}
	if tokens != 1 {
		t.Errorf("tokens = %d, want 1", tokens)
	}
}

func TestGenerateTitle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("title generation should not stream")
		}
		if !strings.Contains(req.Prompt, "quantum computing") {
			t.Errorf("prompt does not include the message: %q", req.Prompt)
		}
		w.Write([]byte(`{"model":"llama3.2","response":"<think>short</think>\n\"Quantum Computing Basics.\"","done":true}`))
	})
	c := newTestClient(t, mux)

	title, err := c.GenerateTitle(context.Background(), "llama3.2", "Explain quantum computing to me")
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "Quantum Computing Basics" {
		t.Errorf("title = %q, want 'Quantum Computing Basics'", title)
	}
}

func TestGenerate_HonoursTimeout(t *testing.T) {
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	defer close(release)
	c := NewClientWithConfig(&ClientConfig{BaseURL: server.URL, Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.2", Prompt: "hi"})
	if !IsTimeout(err) {
		t.Errorf("error = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Generate took %v, want the configured timeout", elapsed)
	}
}

func TestGenerateTitle_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"   ","done":true}`))
	})
	c := newTestClient(t, mux)

	if _, err := c.GenerateTitle(context.Background(), "llama3.2", "hi"); err == nil {
		t.Error("expected error for an empty title")
	}
}
