// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the aloha TUI.
//
// It owns the chat sidebar, routes keys between the chat view, the model
// selector overlay, the model manager and the settings screen, and applies
// settings changes made on screen or in the config file.
//
// Usage:
//
//	m := app.New(app.Options{Config: cfg, Client: client, Store: store, Session: mgr})
//	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
//	_, err := p.Run()
package app
