// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jeranaias/aloha-tui/internal/catalog"
	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/ollama"
)

func newModelsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"model"},
		Short:   "Manage installed models",
		Long: `List, inspect, install and remove the models of the Ollama server.

Without a subcommand, lists the installed models.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listModels(cmd.Context(), false)
		},
	}

	var jsonOut bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed models",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listModels(cmd.Context(), jsonOut)
		},
	}
	list.Flags().BoolVar(&jsonOut, "json", false, "output JSON")

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Show model details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.showModel(cmd.Context(), args[0])
		},
	}

	pull := &cobra.Command{
		Use:     "pull NAME",
		Aliases: []string{"install"},
		Short:   "Download a model",
		Example: "  aloha models pull llama3.2:3b",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return rt.pullModel(ctx, args[0])
		},
	}

	var force bool
	rm := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"delete", "remove"},
		Short:   "Remove an installed model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.removeModel(cmd.Context(), args[0], force)
		},
	}
	rm.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	ps := &cobra.Command{
		Use:   "ps",
		Short: "List models loaded in memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.runningModels(cmd.Context())
		},
	}

	var search string
	available := &cobra.Command{
		Use:   "available",
		Short: "List recommended models that are not installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.availableModels(cmd.Context(), search)
		},
	}
	available.Flags().StringVarP(&search, "search", "q", "", "only names containing this text")

	cmd.AddCommand(list, show, pull, rm, ps, available)
	return cmd
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

func (rt *runtime) listModels(ctx context.Context, jsonOut bool) error {
	if jsonOut {
		return writeJSON(rt.out, "models list", func() (any, error) {
			return rt.client.ListModels(ctx)
		})
	}

	installed, err := rt.client.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		fmt.Fprintln(rt.out, "No models installed.")
		fmt.Fprintln(rt.out, DimStyle.Render("Install one with `aloha models pull NAME`; see `aloha models available`."))
		return nil
	}

	tw := newTable(rt.out)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, m := range installed {
		name := m.Name
		if name == rt.cfg.Ollama.Model {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, m.FormatSize(), humanize.RelTime(m.ModifiedAt, rt.now(), "ago", "from now"))
	}
	return tw.Flush()
}

func (rt *runtime) showModel(ctx context.Context, name string) error {
	info, err := rt.client.ShowModel(ctx, name)
	if err != nil {
		return err
	}

	fmt.Fprintln(rt.out, TitleStyle.Render(name))
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(rt.out, "%s %s\n", LabelStyle.Render(label), value)
		}
	}
	row("Family", info.Details.Family)
	row("Parameters", info.Details.ParameterSize)
	row("Quantization", info.Details.QuantizationLevel)
	row("Format", info.Details.Format)
	if !info.ModifiedAt.IsZero() {
		row("Modified", info.ModifiedAt.Local().Format("2006-01-02 15:04"))
	}
	if lic := strings.TrimSpace(info.License); lic != "" {
		first, _, _ := strings.Cut(lic, "\n")
		row("License", strings.TrimSpace(first))
	}
	if params := strings.TrimSpace(info.Parameters); params != "" {
		fmt.Fprintln(rt.out)
		fmt.Fprintln(rt.out, DimStyle.Render("Parameters"))
		for _, line := range strings.Split(params, "\n") {
			fmt.Fprintln(rt.out, "  "+strings.Join(strings.Fields(line), " "))
		}
	}
	return nil
}

// pullModel downloads name, redrawing one progress line on a terminal and
// printing each new status otherwise.
func (rt *runtime) pullModel(ctx context.Context, name string) error {
	tty := isTerminal(rt.errOut)
	redraw := rate.Sometimes{Interval: 100 * time.Millisecond}
	var lastStatus string

	err := rt.client.PullModel(ctx, name, func(p ollama.PullProgress) {
		if !tty {
			if p.Status != lastStatus {
				fmt.Fprintln(rt.errOut, p.Status)
				lastStatus = p.Status
			}
			return
		}
		line := p.Status
		if p.Total > 0 {
			line = fmt.Sprintf("%s %3.0f%% (%s/%s)", p.Status, p.Fraction()*100,
				humanize.IBytes(uint64(p.Completed)), humanize.IBytes(uint64(p.Total)))
		}
		if p.Status != lastStatus || p.IsSuccess() {
			lastStatus = p.Status
			fmt.Fprintf(rt.errOut, "\r\033[K%s", line)
			return
		}
		redraw.Do(func() {
			fmt.Fprintf(rt.errOut, "\r\033[K%s", line)
		})
	})
	if tty {
		fmt.Fprintln(rt.errOut)
	}
	if err != nil {
		return fmt.Errorf("pull %s: %w", name, err)
	}
	fmt.Fprintln(rt.out, SuccessStyle.Render("Installed "+name))
	return nil
}

func (rt *runtime) removeModel(ctx context.Context, name string, force bool) error {
	if !force {
		ok, err := confirm(rt.in, rt.out, fmt.Sprintf("Remove model %s?", name))
		if err != nil || !ok {
			return err
		}
	}
	if err := rt.client.DeleteModel(ctx, name); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	fmt.Fprintln(rt.out, "Removed "+name)
	return nil
}

func (rt *runtime) runningModels(ctx context.Context) error {
	running, err := rt.client.RunningModels(ctx)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		fmt.Fprintln(rt.out, "No models loaded.")
		return nil
	}
	tw := newTable(rt.out)
	fmt.Fprintln(tw, "NAME\tSIZE\tVRAM\tUNTIL")
	for _, m := range running {
		until := "-"
		if !m.ExpiresAt.IsZero() {
			until = humanize.RelTime(m.ExpiresAt, rt.now(), "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Name, ollama.FormatSize(m.Size), ollama.FormatSize(m.SizeVRAM), until)
	}
	return tw.Flush()
}

func (rt *runtime) availableModels(ctx context.Context, search string) error {
	installed, err := rt.client.ListModels(ctx)
	if err != nil {
		return err
	}
	names := make([]string, len(installed))
	for i, m := range installed {
		names[i] = m.Name
	}

	path, _ := config.CatalogPath()
	families, err := catalog.Families(path)
	if err != nil {
		rt.log.Warn("user catalog unreadable, using built-in list", "error", err)
	}
	available := catalog.Available(catalog.Recommended(families), names, search)
	if len(available) == 0 {
		fmt.Fprintln(rt.out, "No matching models to install.")
		return nil
	}
	for _, name := range available {
		fmt.Fprintln(rt.out, name)
	}
	return nil
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y or yes, including end of input, is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(out, "Cancelled.")
		return false, nil
	}
	return true, nil
}
