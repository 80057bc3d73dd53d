// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/session"
	"github.com/jeranaias/aloha-tui/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
	// ExitCanceled follows the shell convention for SIGINT.
	ExitCanceled = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports invalid arguments or flags.
type UsageError struct {
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return e.Reason + "\nExample: " + e.Example
	}
	return e.Reason
}

// ConfigError wraps a failure to load or save the configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// EXIT CODE AND HINT MAPPING
// =============================================================================

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var configErr *ConfigError
	var validateErrs config.ValidateErrors
	var notFoundErr *NotFoundError

	switch {
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &configErr), errors.As(err, &validateErrs):
		return ExitConfigError
	case errors.As(err, &notFoundErr),
		errors.Is(err, storage.ErrChatNotFound),
		ollama.IsModelNotFound(err):
		return ExitNotFoundError
	case session.IsCanceled(err):
		return ExitCanceled
	case ollama.IsTimeout(err):
		return ExitTimeoutError
	case ollama.IsNotRunning(err):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// Hint returns a one-line suggestion for well-known failures, or "".
func Hint(err error) string {
	switch {
	case ollama.IsNotRunning(err):
		return "Start Ollama with `ollama serve`, or point aloha elsewhere with --url."
	case ollama.IsModelNotFound(err):
		return "Install it with `aloha models pull NAME`, or list installed models with `aloha models list`."
	case errors.Is(err, session.ErrNoModel):
		return "Pick a model with --model, or install one with `aloha models pull NAME`."
	case errors.Is(err, storage.ErrChatNotFound):
		return "List saved chats with `aloha chats list`."
	}
	return ""
}

// DisplayError writes err and its hint to w.
func DisplayError(w io.Writer, err error) {
	if err == nil || session.IsCanceled(err) {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), err.Error())
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(w, DimStyle.Render(hint))
	}
}
