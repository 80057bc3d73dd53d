// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chats to files for sharing outside the app.
//
// # Supported Formats
//
//   - md: Markdown with YAML frontmatter; reasoning in a <details> section
//   - json, yaml: structured documents keeping raw content plus the split
//     reasoning and answer
//   - html: a standalone page with highlighted code and a theme toggle
//
// # Usage
//
//	exp, err := export.ForFormat("html", export.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(chat, exp, opts)
package export
