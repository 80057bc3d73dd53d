// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models provides the model selector overlay and the model manager
// screen of the aloha TUI.
//
// The selector lists installed models and picks the one used for new
// replies. The manager lists installed models with their size and a delete
// action, and the recommended models that are not installed yet with an
// install action and a pull progress bar.
package models
