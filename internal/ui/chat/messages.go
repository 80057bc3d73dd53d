// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/aloha-tui/internal/session"
)

// StreamTickMsg drives batched rendering of the pending reply.
type StreamTickMsg struct {
	Time time.Time
}

// SendDoneMsg reports the end of a send. Result is nil when Err is set.
type SendDoneMsg struct {
	Result *session.Result
	Err    error
}

// CopiedMsg reports the outcome of a clipboard copy.
type CopiedMsg struct {
	Err error
}
