// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aloha-tui/internal/catalog"
	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/session"
	"github.com/jeranaias/aloha-tui/internal/sound"
	"github.com/jeranaias/aloha-tui/internal/ui/app"
)

// configDebounce coalesces the burst of events one save produces.
const configDebounce = 200 * time.Millisecond

// runTUI starts the full-screen interface.
func (rt *runtime) runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := rt.openStore(ctx)
	if err != nil {
		return err
	}

	player := sound.NewPlayer(rt.cfg.Settings)
	mgr := session.NewManager(session.Options{
		Client:   rt.client,
		Store:    store,
		Sound:    player,
		Settings: rt.cfg.Settings,
		Model:    rt.cfg.Ollama.Model,
		Logger:   rt.log,
	})

	updates := make(chan *config.Config, 1)
	watcher, err := config.NewWatcher(rt.cfgPath, configDebounce, func(c *config.Config) {
		if rt.modelPinned() {
			c.Ollama.Model = ""
		}
		// Keep only the newest config when the UI is behind.
		select {
		case <-updates:
		default:
		}
		updates <- c
	}, func(err error) {
		rt.log.Warn("config reload failed", "error", err)
	})
	if err != nil {
		// Live reload is a convenience; the TUI runs without it.
		rt.log.Warn("config watcher unavailable", "error", err)
	} else {
		defer watcher.Close()
	}

	m := app.New(app.Options{
		Config:        rt.cfg,
		Client:        rt.client,
		Store:         store,
		Session:       mgr,
		Sound:         player,
		Recommended:   rt.recommended(),
		SaveSettings:  rt.saveSettings,
		SaveModel:     rt.saveModel,
		ConfigUpdates: updates,
		Logger:        rt.log,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}

// recommended returns the recommended model names from the user catalogue,
// or the built-in one.
func (rt *runtime) recommended() []string {
	path, err := config.CatalogPath()
	if err != nil {
		path = ""
	}
	families, err := catalog.Families(path)
	if err != nil {
		rt.log.Warn("user catalog unreadable, using built-in list", "error", err)
	}
	return catalog.Recommended(families)
}
