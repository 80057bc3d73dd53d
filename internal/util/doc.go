// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across aloha.
//
// # Key Functions
//
// Files:
//   - AtomicWriteFile: crash-safe write (temp file, fsync, rename)
//
// Strings:
//   - TruncateRunes, TruncateWidth, PadWidth: rune- and column-aware cutting
//   - Fold, ContainsFold: case- and accent-insensitive matching
//   - CollapseSpace: squash whitespace runs
//
// Time:
//   - RelativeTime: "5 minutes ago" style timestamps
//
// # Usage
//
//	title := util.TruncateWidth(chat.Title, 24)
//	if util.ContainsFold(chat.Title, query) { ... }
//	err := util.AtomicWriteFile(path, data, 0600)
package util
