// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
//
// These are the records the store persists and the screens render. They
// carry no behaviour beyond small, pure helpers.
//
// # Key Types
//
//   - Chat: a titled, ordered list of messages with timestamps
//   - Message: one turn with role, content, timestamp and the answering model
//   - Role: message role enumeration (user, assistant, system)
//   - Thinking: a reply split into reasoning and visible answer
//
// # Usage
//
//	chat := model.NewChat(time.Now())
//	chat.Messages = append(chat.Messages, model.NewUserMessage("Hello!", time.Now()))
//	chat.AppendStreamToken("Hi", time.Now())
//	msgs := chat.ToOllamaMessages(settings.SystemPrompt)
package model
