// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// The client covers everything the chat application consumes: installed
// and running models, model details, pull with progress, delete, streaming
// chat and one-shot generation (used for chat titles).
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - StreamReader: NDJSON chat-stream decoder that tolerates split lines
//   - StreamChunk: one decoded fragment of a streamed reply
//   - ClientError: typed error with NotRunning, Timeout, ModelNotFound,
//     Canceled and friends
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	err := client.ChatStream(ctx, ollama.ChatRequest{
//	    Model:    "llama3.2:3b",
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	}, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
//	if ollama.IsCanceled(err) {
//	    // user pressed Esc
//	}
//
// Failures are reported once; the client never retries.
package ollama
