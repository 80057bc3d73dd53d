// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs the send flow shared by the TUI and the line REPL.
//
// A Manager owns the current chat. Send appends the user's message, streams
// the model's reply into the chat, then persists both messages and gives the
// chat a title on its first exchange. At most one send runs at a time; Cancel
// aborts it and leaves the partial reply in memory without persisting it.
//
// # Usage
//
//	mgr := session.NewManager(session.Options{
//	    Client:   client,
//	    Store:    store,
//	    Sound:    player,
//	    Settings: cfg.Settings,
//	    Model:    cfg.Ollama.Model,
//	})
//	res, err := mgr.Send(ctx, "hello", func(token string) { fmt.Print(token) })
package session
