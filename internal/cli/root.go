// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the aloha command line: the TUI entry point and the
// line-mode, model, chat, config and catalogue subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/storage"
)

// Version is set at build time.
var Version = "dev"

// =============================================================================
// RUNTIME
// =============================================================================

// runtime is the state shared by all commands of one invocation.
type runtime struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// Global flags
	configPath string
	url        string
	modelName  string
	logLevel   string

	cfgPath string
	// base is the configuration as loaded, without flag overrides. It is
	// what gets written back.
	base *config.Config
	cfg  *config.Config

	log      *slog.Logger
	closeLog func() error
	client   *ollama.Client
	store    *storage.Store

	now func() time.Time

	// mu guards modelName once the TUI runs; the config watcher reads it.
	mu sync.Mutex
}

// skipSetup lists commands that need no config, logger or client.
var skipSetup = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

// setup loads the configuration, applies flag overrides and creates the
// logger and the Ollama client.
func (rt *runtime) setup(cmd *cobra.Command, args []string) error {
	rt.in = cmd.InOrStdin()
	rt.out = cmd.OutOrStdout()
	rt.errOut = cmd.ErrOrStderr()
	if rt.now == nil {
		rt.now = time.Now
	}
	if skipSetup[cmd.Name()] {
		return nil
	}

	path := rt.configPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return &ConfigError{Path: "(default)", Err: err}
		}
	}
	rt.cfgPath = path

	base, err := config.LoadFromPath(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	rt.base = base
	rt.cfg = base.Clone()
	if err := rt.applyFlags(rt.cfg); err != nil {
		return err
	}

	logPath, err := rt.cfg.LogPath()
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	// The TUI owns the terminal, so only subcommands log to stderr.
	var console io.Writer
	if cmd.HasParent() {
		console = rt.errOut
	}
	rt.log, rt.closeLog = config.SetupLogger(logPath, rt.cfg.LogLevel(), console)
	slog.SetDefault(rt.log)

	rt.client = ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: rt.cfg.Ollama.URL,
		Timeout: time.Duration(rt.cfg.Ollama.Timeout) * time.Second,
		Logger:  rt.log,
	})
	rt.log.Debug("starting", "command", cmd.CommandPath(), "config", path, "ollama", rt.client.BaseURL())
	return nil
}

// applyFlags overrides cfg with the global flags.
func (rt *runtime) applyFlags(cfg *config.Config) error {
	if rt.url != "" {
		cfg.Ollama.URL = rt.url
	}
	if rt.modelName != "" {
		cfg.Ollama.Model = rt.modelName
	}
	if rt.logLevel != "" {
		if _, err := config.ParseLevel(rt.logLevel); err != nil {
			return &UsageError{Reason: err.Error(), Example: "aloha --log-level debug"}
		}
		cfg.Logging.Level = rt.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return &UsageError{Reason: err.Error()}
	}
	return nil
}

func (rt *runtime) teardown(cmd *cobra.Command, args []string) error {
	var firstErr error
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			firstErr = err
		}
		rt.store = nil
	}
	if rt.closeLog != nil {
		if err := rt.closeLog(); err != nil && firstErr == nil {
			firstErr = err
		}
		rt.closeLog = nil
	}
	return firstErr
}

// openStore opens the chat store once per invocation.
func (rt *runtime) openStore(ctx context.Context) (*storage.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	path, err := rt.cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenWithLogger(ctx, path, rt.log)
	if err != nil {
		return nil, fmt.Errorf("open chat store: %w", err)
	}
	rt.store = store
	return store, nil
}

// saveBase writes the base configuration back to the config file.
func (rt *runtime) saveBase() error {
	if err := config.SaveTOML(rt.base, rt.cfgPath); err != nil {
		return &ConfigError{Path: rt.cfgPath, Err: err}
	}
	return nil
}

// saveSettings applies patch to the stored and the effective configuration
// and persists it.
func (rt *runtime) saveSettings(patch config.SettingsPatch) (config.Settings, error) {
	if err := rt.base.UpdateSettings(patch); err != nil {
		return config.Settings{}, err
	}
	if err := rt.saveBase(); err != nil {
		return config.Settings{}, err
	}
	rt.cfg.Settings = rt.base.Settings
	return rt.cfg.Settings, nil
}

// saveModel persists the selected model. A --model flag is spent once a
// model is picked explicitly.
func (rt *runtime) saveModel(name string) error {
	rt.mu.Lock()
	rt.modelName = ""
	rt.mu.Unlock()

	rt.base.Ollama.Model = name
	rt.cfg.Ollama.Model = name
	return rt.saveBase()
}

// modelPinned reports whether --model still overrides the file.
func (rt *runtime) modelPinned() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.modelName != ""
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the aloha command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&runtime{})
}

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "aloha",
		Short: "Chat with local models served by Ollama",
		Long: `Aloha is a terminal chat client for a local Ollama server.

Run without arguments to open the full-screen interface: a sidebar of saved
chats, streaming markdown replies, a model manager and a settings screen.
The subcommands cover the same ground from the shell.`,
		Example: `  aloha
  aloha chat
  aloha ask "Explain goroutines in one paragraph"
  aloha models pull llama3.2:3b
  aloha chats export 3f2a --format html`,
		Version:            Version,
		Args:               cobra.NoArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  rt.setup,
		PersistentPostRunE: rt.teardown,
		RunE:               rt.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", "", "config file (default ~/.aloha/config.toml)")
	flags.StringVar(&rt.url, "url", "", "Ollama server URL")
	flags.StringVarP(&rt.modelName, "model", "m", "", "model to chat with")
	flags.StringVar(&rt.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newChatCommand(rt),
		newAskCommand(rt),
		newModelsCommand(rt),
		newChatsCommand(rt),
		newConfigCommand(rt),
		newCatalogCommand(rt),
		newVersionCommand(rt),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	rt := &runtime{}
	return rt.execute(newRootCommand(rt), os.Args[1:], os.Stderr)
}

// execute runs root with args. Resources are released even when a command
// fails, which skips the post-run hook.
func (rt *runtime) execute(root *cobra.Command, args []string, errOut io.Writer) int {
	defer rt.teardown(root, args)

	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		DisplayError(errOut, err)
	}
	return ExitCode(err)
}
