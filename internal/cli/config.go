// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aloha-tui/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change configuration",
		Long: `Read and change the configuration file.

Keys use dot notation, for example settings.theme or ollama.url. Values set
here are validated and written back to the file; a running aloha picks them
up immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listConfig(false)
		},
	}

	get := &cobra.Command{
		Use:     "get KEY",
		Short:   "Print one value",
		Example: "  aloha config get settings.theme",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := rt.cfg.Get(args[0])
			if err != nil {
				return &UsageError{Reason: err.Error(), Example: "aloha config list"}
			}
			fmt.Fprintln(rt.out, v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one value",
		Example: `  aloha config set settings.theme dark
  aloha config set ollama.url http://gpu-box:11434`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.setConfig(args[0], args[1])
		},
	}

	var jsonOut bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print every value",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listConfig(jsonOut)
		},
	}
	list.Flags().BoolVar(&jsonOut, "json", false, "output JSON")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(rt.out, rt.cfgPath)
			return nil
		},
	}

	var force bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirm(rt.in, rt.out, "Reset "+rt.cfgPath+" to defaults?")
				if err != nil || !ok {
					return err
				}
			}
			rt.base = config.Default()
			if err := rt.saveBase(); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "Configuration reset.")
			return nil
		},
	}
	reset.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	cmd.AddCommand(get, set, list, path, reset)
	return cmd
}

// setConfig changes key on the stored configuration. An invalid value
// leaves the file untouched.
func (rt *runtime) setConfig(key, value string) error {
	next := rt.base.Clone()
	if err := next.Set(key, value); err != nil {
		return &UsageError{Reason: err.Error(), Example: "aloha config set settings.theme dark"}
	}
	if err := next.Validate(); err != nil {
		return &UsageError{Reason: err.Error()}
	}
	rt.base = next
	if err := rt.saveBase(); err != nil {
		return err
	}
	v, _ := next.Get(key)
	fmt.Fprintf(rt.out, "%s = %v\n", strings.ToLower(key), v)
	return nil
}

func (rt *runtime) listConfig(jsonOut bool) error {
	if jsonOut {
		return writeJSON(rt.out, "config list", func() (any, error) {
			return rt.cfg, nil
		})
	}
	tw := newTable(rt.out)
	for _, k := range config.Keys() {
		v, err := rt.cfg.Get(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, formatValue(v))
	}
	return tw.Flush()
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		if s == "" {
			return DimStyle.Render(`""`)
		}
		if strings.ContainsAny(s, "\n\t") {
			return fmt.Sprintf("%q", s)
		}
	}
	return fmt.Sprint(v)
}
