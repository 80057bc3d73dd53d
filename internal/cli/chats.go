// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aloha-tui/internal/export"
	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/storage"
	"github.com/jeranaias/aloha-tui/internal/util"
)

// shortIDLen is how many id characters list output shows.
const shortIDLen = 8

// shortID abbreviates a chat id for display.
func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// chatLister is the part of the store id resolution needs.
type chatLister interface {
	List(ctx context.Context) ([]storage.ChatSummary, error)
}

// resolveChatID expands a full id or a unique id prefix.
func resolveChatID(ctx context.Context, store chatLister, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", &UsageError{Reason: "chat id is empty", Example: "aloha chats show 3f2a"}
	}
	chats, err := store.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, c := range chats {
		if c.ID == prefix {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, prefix) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Resource: "chat", ID: prefix}
	case 1:
		return matches[0], nil
	}
	return "", &UsageError{
		Reason: fmt.Sprintf("chat id %q is ambiguous (%d matches); use more characters", prefix, len(matches)),
	}
}

// =============================================================================
// CHATS COMMAND
// =============================================================================

func newChatsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "chats",
		Aliases: []string{"history"},
		Short:   "Browse and manage saved chats",
		Long: `List, read, search, export and delete saved chats.

Chats are addressed by id. Any unique prefix of an id works, so the short
ids shown by "aloha chats list" can be used directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listChats(cmd.Context(), "", false)
		},
	}

	var listJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved chats, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listChats(cmd.Context(), "", listJSON)
		},
	}
	list.Flags().BoolVar(&listJSON, "json", false, "output JSON")

	var searchJSON bool
	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find chats by title or message text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.listChats(cmd.Context(), strings.Join(args, " "), searchJSON)
		},
	}
	search.Flags().BoolVar(&searchJSON, "json", false, "output JSON")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a chat transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.showChat(cmd.Context(), args[0])
		},
	}

	var rmForce bool
	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a chat",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.deleteChat(cmd.Context(), args[0], rmForce)
		},
	}
	rm.Flags().BoolVarP(&rmForce, "force", "f", false, "skip confirmation")

	var clearForce bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.clearChats(cmd.Context(), clearForce)
		},
	}
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation")

	var exp exportOptions
	exportCmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a chat to a file",
		Long: `Export a chat as markdown, JSON, YAML or a standalone HTML page.

By default the file is written to the current directory under a name built
from the chat title. Use --output - to print to standard output.`,
		Example: `  aloha chats export 3f2a
  aloha chats export 3f2a --format html --theme dark
  aloha chats export 3f2a --format json --output -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.exportChat(cmd.Context(), args[0], exp)
		},
	}
	exportCmd.Flags().StringVarP(&exp.format, "format", "F", "md", "format: "+strings.Join(export.Formats, ", "))
	exportCmd.Flags().StringVarP(&exp.output, "output", "o", "", "output directory, or - for stdout")
	exportCmd.Flags().StringVar(&exp.theme, "theme", "light", "HTML theme: light or dark")
	exportCmd.Flags().BoolVar(&exp.noMeta, "no-metadata", false, "omit the metadata header")
	exportCmd.Flags().BoolVar(&exp.open, "open", false, "open the file after exporting")

	cmd.AddCommand(list, search, show, rm, clearCmd, exportCmd)
	return cmd
}

func (rt *runtime) listChats(ctx context.Context, query string, jsonOut bool) error {
	store, err := rt.openStore(ctx)
	if err != nil {
		return err
	}

	command := "chats list"
	if query != "" {
		command = "chats search"
	}
	if jsonOut {
		return writeJSON(rt.out, command, func() (any, error) {
			chats, err := store.Search(ctx, query)
			if chats == nil {
				chats = []storage.ChatSummary{}
			}
			return chats, err
		})
	}

	chats, err := store.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		if query != "" {
			fmt.Fprintf(rt.out, "No chats match %q.\n", query)
		} else {
			fmt.Fprintln(rt.out, "No chats yet.")
		}
		return nil
	}

	width := terminalWidth(rt.out)
	tw := newTable(rt.out)
	fmt.Fprintln(tw, "ID\tTITLE\tMESSAGES\tUPDATED")
	for _, c := range chats {
		title := util.TruncateWidth(c.Title, max(width-40, 16))
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", shortID(c.ID), title, c.MessageCount,
			humanize.RelTime(c.UpdatedAt, rt.now(), "ago", "from now"))
	}
	return tw.Flush()
}

// loadChat resolves an id prefix and reads the chat.
func (rt *runtime) loadChat(ctx context.Context, prefix string) (*model.Chat, error) {
	store, err := rt.openStore(ctx)
	if err != nil {
		return nil, err
	}
	id, err := resolveChatID(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

func (rt *runtime) showChat(ctx context.Context, prefix string) error {
	chat, err := rt.loadChat(ctx, prefix)
	if err != nil {
		return err
	}

	fmt.Fprintln(rt.out, TitleStyle.Render(chat.Title))
	fmt.Fprintln(rt.out, DimStyle.Render(fmt.Sprintf("%s · created %s · %d messages",
		chat.ID, chat.CreatedAt.Local().Format("2006-01-02 15:04"), len(chat.Messages))))
	fmt.Fprintln(rt.out, separator(terminalWidth(rt.out)))
	for _, m := range chat.Messages {
		printMessage(rt.out, m)
	}
	return nil
}

func (rt *runtime) deleteChat(ctx context.Context, prefix string, force bool) error {
	chat, err := rt.loadChat(ctx, prefix)
	if err != nil {
		return err
	}
	if !force {
		ok, err := confirm(rt.in, rt.out, fmt.Sprintf("Delete chat %q?", chat.Title))
		if err != nil || !ok {
			return err
		}
	}
	if err := rt.store.Delete(ctx, chat.ID); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "Deleted %s (%s)\n", chat.Title, shortID(chat.ID))
	return nil
}

func (rt *runtime) clearChats(ctx context.Context, force bool) error {
	store, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Fprintln(rt.out, "No chats to delete.")
		return nil
	}
	if !force {
		question := fmt.Sprintf("Delete all %s?", humanize.Comma(int64(count))+" "+plural(count, "chat", "chats"))
		ok, err := confirm(rt.in, rt.out, question)
		if err != nil || !ok {
			return err
		}
	}
	n, err := store.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "Deleted %d %s.\n", n, plural(n, "chat", "chats"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// =============================================================================
// EXPORT
// =============================================================================

type exportOptions struct {
	format string
	output string
	theme  string
	noMeta bool
	open   bool
}

func (rt *runtime) exportChat(ctx context.Context, prefix string, opts exportOptions) error {
	chat, err := rt.loadChat(ctx, prefix)
	if err != nil {
		return err
	}

	eo := export.DefaultOptions()
	eo.IncludeMetadata = !opts.noMeta
	eo.Theme = opts.theme
	eo.OpenAfterExport = opts.open && opts.output != "-"
	eo.Now = rt.now
	if opts.output != "" && opts.output != "-" {
		eo.OutputDir = opts.output
	}

	exporter, err := export.ForFormat(opts.format, eo)
	if err != nil {
		return &UsageError{Reason: err.Error(), Example: "aloha chats export 3f2a --format html"}
	}

	if opts.output == "-" {
		data, err := exporter.Export(chat)
		if err != nil {
			return err
		}
		_, err = rt.out.Write(data)
		return err
	}

	path, err := export.ExportToFile(chat, exporter, eo)
	if err != nil {
		if path != "" {
			// Written, but the viewer could not be started.
			rt.log.Warn("open export", "path", path, "error", err)
			fmt.Fprintln(rt.out, SuccessStyle.Render("Exported to "+path))
			return nil
		}
		return err
	}
	fmt.Fprintln(rt.out, SuccessStyle.Render("Exported to "+path))
	return nil
}
