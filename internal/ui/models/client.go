// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/aloha-tui/internal/ollama"
)

// LoadFailedText is shown when the installed list cannot be fetched.
const LoadFailedText = "Failed to load models. Make sure Ollama is running."

// Client is the part of the Ollama client the model screens use.
type Client interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
	PullModel(ctx context.Context, name string, fn ollama.PullProgressFunc) error
	DeleteModel(ctx context.Context, name string) error
}

var _ Client = (*ollama.Client)(nil)

// =============================================================================
// MESSAGES
// =============================================================================

// LoadedMsg carries the installed model list.
type LoadedMsg struct {
	Models []ollama.ModelInfo
	Err    error
}

// SelectedMsg reports a model picked in the selector.
type SelectedMsg struct {
	Name string
}

// CloseMsg asks the parent to close the overlay or screen.
type CloseMsg struct{}

// OpenManagerMsg asks the parent to open the model manager.
type OpenManagerMsg struct{}

// PullProgressMsg is one throttled progress update of a running pull.
type PullProgressMsg struct {
	Name     string
	Progress ollama.PullProgress
	events   <-chan pullEvent
}

// PullDoneMsg ends a pull.
type PullDoneMsg struct {
	Name string
	Err  error
}

// DeletedMsg ends a delete.
type DeletedMsg struct {
	Name string
	Err  error
}

// =============================================================================
// COMMANDS
// =============================================================================

// LoadCmd fetches the installed models.
func LoadCmd(client Client) tea.Cmd {
	return func() tea.Msg {
		models, err := client.ListModels(context.Background())
		return LoadedMsg{Models: models, Err: err}
	}
}

func deleteCmd(client Client, name string) tea.Cmd {
	return func() tea.Msg {
		return DeletedMsg{Name: name, Err: client.DeleteModel(context.Background(), name)}
	}
}

// pullProgressInterval bounds how often progress reaches the UI.
const pullProgressInterval = 100 * time.Millisecond

type pullEvent struct {
	progress ollama.PullProgress
	err      error
	done     bool
}

// startPull runs the pull in a goroutine and returns its event stream.
// Progress lines are throttled; the final event is always delivered.
func startPull(ctx context.Context, client Client, name string) <-chan pullEvent {
	events := make(chan pullEvent, 16)
	limiter := rate.NewLimiter(rate.Every(pullProgressInterval), 1)

	go func() {
		defer close(events)
		err := client.PullModel(ctx, name, func(p ollama.PullProgress) {
			if !limiter.Allow() {
				return
			}
			select {
			case events <- pullEvent{progress: p}:
			default:
			}
		})
		events <- pullEvent{err: err, done: true}
	}()
	return events
}

// waitPull delivers the next pull event as a message.
func waitPull(name string, events <-chan pullEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return PullDoneMsg{Name: name}
		}
		if ev.done {
			return PullDoneMsg{Name: name, Err: ev.err}
		}
		return PullProgressMsg{Name: name, Progress: ev.progress, events: events}
	}
}

// =============================================================================
// SELECTION
// =============================================================================

// ResolveModel returns current when it is installed, the first installed
// model otherwise, and current unchanged when nothing is installed.
func ResolveModel(current string, installed []ollama.ModelInfo) string {
	if len(installed) == 0 {
		return current
	}
	for _, m := range installed {
		if m.Name == current {
			return current
		}
	}
	return installed[0].Name
}

func names(models []ollama.ModelInfo) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.Name
	}
	return out
}
