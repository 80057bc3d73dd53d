// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aloha-tui/internal/catalog"
	"github.com/jeranaias/aloha-tui/internal/config"
)

// scrapeTimeout bounds a catalogue refresh.
const scrapeTimeout = 30 * time.Second

func newCatalogCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the list of recommended models",
		Long: `The catalogue is the list of model families offered for install in the
model manager. A built-in list ships with aloha; "catalog update" replaces
it with the current public Ollama library.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listCatalog()
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the catalogue",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listCatalog()
		},
	}

	var url string
	update := &cobra.Command{
		Use:   "update",
		Short: "Refresh the catalogue from the Ollama library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.updateCatalog(cmd.Context(), url)
		},
	}
	update.Flags().StringVar(&url, "url", catalog.DefaultLibraryURL, "library page to read")

	cmd.AddCommand(list, update)
	return cmd
}

func (rt *runtime) listCatalog() error {
	path, err := config.CatalogPath()
	if err != nil {
		return err
	}
	source := "built-in"
	if c, err := catalog.Load(path); err == nil && len(c.Families) > 0 {
		source = fmt.Sprintf("%s, updated %s", path, humanize.RelTime(c.UpdatedAt, rt.now(), "ago", "from now"))
	}

	families, err := catalog.Families(path)
	if err != nil {
		rt.log.Warn("user catalog unreadable, using built-in list", "path", path, "error", err)
		source = "built-in"
	}
	fmt.Fprintln(rt.out, DimStyle.Render("Source: "+source))

	tw := newTable(rt.out)
	for _, f := range families {
		variants := strings.Join(f.Variants, ", ")
		if variants == "" {
			variants = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", f.Name, variants)
	}
	return tw.Flush()
}

func (rt *runtime) updateCatalog(ctx context.Context, url string) error {
	path, err := config.CatalogPath()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	fmt.Fprintln(rt.errOut, DimStyle.Render("Fetching "+url+"..."))
	families, err := catalog.Scrape(ctx, &http.Client{Timeout: scrapeTimeout}, url)
	if err != nil {
		return err
	}
	if len(families) == 0 {
		return fmt.Errorf("no models found at %s; keeping the current catalogue", url)
	}

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	c := &catalog.Catalog{Source: url, UpdatedAt: rt.now().UTC(), Families: families}
	if err := catalog.Save(path, c); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	n := len(catalog.Recommended(families))
	fmt.Fprintln(rt.out, SuccessStyle.Render(fmt.Sprintf("Saved %d families (%d models) to %s", len(families), n, path)))
	return nil
}
