// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aloha-tui/internal/config"
	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/session"
	"github.com/jeranaias/aloha-tui/internal/sound"
	"github.com/jeranaias/aloha-tui/internal/ui/models"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of input per prompt. io.EOF ends the session.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
}

// historyLiner wraps liner with a history file.
type historyLiner struct {
	state *liner.State
	path  string
}

func newHistoryLiner(path string) *historyLiner {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetMultiLineMode(true)

	h := &historyLiner{state: state, path: path}
	if f, err := os.Open(path); err == nil {
		_, _ = state.ReadHistory(f)
		f.Close()
	}
	return h
}

func (h *historyLiner) Prompt(prompt string) (string, error) {
	line, err := h.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", nil
	}
	return line, err
}

func (h *historyLiner) AppendHistory(line string) {
	h.state.AppendHistory(line)
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (h *historyLiner) Close() error {
	defer h.state.Close()
	if err := os.MkdirAll(filepath.Dir(h.path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = h.state.WriteHistory(f)
	return err
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

type chatOptions struct {
	chatID string
	stats  bool
}

func newChatCommand(rt *runtime) *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Chat with a model line by line, with input history and line editing.

Replies stream as they are generated and every exchange is saved, so the
chat also shows up in the full-screen interface. Type /help for commands.
Ctrl+C stops a reply; Ctrl+D or /exit leaves.`,
		Example: `  aloha chat
  aloha chat --model qwen3:8b
  aloha chat --chat 3f2a9c`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.HistoryPath()
			if err != nil {
				return err
			}
			lr := newHistoryLiner(path)
			defer func() {
				if err := lr.Close(); err != nil {
					rt.log.Warn("save input history", "error", err)
				}
			}()
			return rt.runChat(cmd.Context(), lr, opts)
		},
	}
	cmd.Flags().StringVar(&opts.chatID, "chat", "", "continue a saved chat (id or unique prefix)")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print timing and token counts after each reply")
	return cmd
}

// chatREPL is one line-mode session.
type chatREPL struct {
	rt    *runtime
	mgr   *session.Manager
	out   io.Writer
	stats bool
}

func (rt *runtime) runChat(ctx context.Context, lr lineReader, opts chatOptions) error {
	store, err := rt.openStore(ctx)
	if err != nil {
		return err
	}

	modelName, err := rt.resolveModel(ctx)
	if err != nil {
		return err
	}

	mgr := session.NewManager(session.Options{
		Client:   rt.client,
		Store:    store,
		Sound:    sound.NewPlayerWithWriter(rt.errOut, rt.cfg.Settings, sound.DefaultTypingInterval),
		Settings: rt.cfg.Settings,
		Model:    modelName,
		Logger:   rt.log,
		Now:      rt.now,
	})
	if opts.chatID != "" {
		id, err := resolveChatID(ctx, store, opts.chatID)
		if err != nil {
			return err
		}
		if err := mgr.Open(ctx, id); err != nil {
			return err
		}
	}

	r := &chatREPL{rt: rt, mgr: mgr, out: rt.out, stats: opts.stats}
	r.printWelcome()

	for {
		line, err := lr.Prompt(">>> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		lr.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := r.command(ctx, input)
			if err != nil {
				DisplayError(rt.errOut, err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := r.send(ctx, input); err != nil {
			DisplayError(rt.errOut, err)
		}
	}
}

// resolveModel returns the configured model when it is installed, else the
// first installed model.
func (rt *runtime) resolveModel(ctx context.Context) (string, error) {
	installed, err := rt.client.ListModels(ctx)
	if err != nil {
		if rt.cfg.Ollama.Model != "" && !ollama.IsNotRunning(err) {
			return rt.cfg.Ollama.Model, nil
		}
		return "", err
	}
	if len(installed) == 0 {
		return "", session.ErrNoModel
	}
	return models.ResolveModel(rt.cfg.Ollama.Model, installed), nil
}

func (r *chatREPL) printWelcome() {
	title := model.DefaultTitle
	if c := r.mgr.Chat(); c != nil {
		title = c.Title
	}
	fmt.Fprintf(r.out, "%s %s\n", TitleStyle.Render("Aloha"), DimStyle.Render("· "+r.mgr.Model()+" · "+title))
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, Ctrl+D to leave."))
	if c := r.mgr.Chat(); c != nil {
		for _, m := range c.Messages {
			printMessage(r.out, m)
		}
	}
	fmt.Fprintln(r.out)
}

// send streams one reply. Ctrl+C during the reply stops it and keeps the
// partial text on screen.
func (r *chatREPL) send(ctx context.Context, input string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	printer := newThinkingPrinter(r.out)
	stats := ollama.NewStreamStats()
	res, err := r.mgr.Send(ctx, input, func(token string) {
		stats.RecordFirstToken()
		printer.Write(token)
	})
	printer.Close()
	if err != nil {
		if session.IsCanceled(err) {
			fmt.Fprintln(r.out, DimStyle.Render("[stopped]"))
			return nil
		}
		return err
	}
	if r.stats {
		stats.Finalize(res.Final)
		fmt.Fprintln(r.out, DimStyle.Render(stats.Format()))
	}
	if res.Created {
		fmt.Fprintln(r.out, DimStyle.Render("Saved as \""+res.Chat.Title+"\""))
	}
	fmt.Fprintln(r.out)
	return nil
}

// command runs a slash command and reports whether to leave.
func (r *chatREPL) command(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/exit", "/quit", "/q":
		return true, nil

	case "/help", "/?":
		printChatHelp(r.out)

	case "/new", "/clear":
		if err := r.mgr.Reset(); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, DimStyle.Render("Started a new chat."))

	case "/model":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "Model: "+r.mgr.Model())
			return false, nil
		}
		r.mgr.SetModel(fields[1])
		if err := r.rt.saveModel(fields[1]); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, DimStyle.Render("Now chatting with "+fields[1]))

	case "/models":
		installed, err := r.rt.client.ListModels(ctx)
		if err != nil {
			return false, err
		}
		for _, m := range installed {
			marker := "  "
			if m.Name == r.mgr.Model() {
				marker = "* "
			}
			fmt.Fprintf(r.out, "%s%s %s\n", marker, m.Name, DimStyle.Render(m.FormatSize()))
		}

	case "/system":
		s := r.rt.cfg.Settings
		switch {
		case s.SystemPromptActive():
			fmt.Fprintln(r.out, s.SystemPrompt)
		case strings.TrimSpace(s.SystemPrompt) != "":
			fmt.Fprintln(r.out, DimStyle.Render("(disabled) ")+s.SystemPrompt)
		default:
			fmt.Fprintln(r.out, DimStyle.Render("No system prompt set."))
		}

	case "/stats":
		r.stats = !r.stats
		state := "off"
		if r.stats {
			state = "on"
		}
		fmt.Fprintln(r.out, DimStyle.Render("Stats "+state+"."))

	case "/title":
		if c := r.mgr.Chat(); c != nil {
			fmt.Fprintln(r.out, c.Title)
		} else {
			fmt.Fprintln(r.out, model.DefaultTitle)
		}

	default:
		return false, &UsageError{Reason: "unknown command " + fields[0], Example: "/help"}
	}
	return false, nil
}

func printChatHelp(w io.Writer) {
	rows := [][2]string{
		{"/new", "start a new chat"},
		{"/model [NAME]", "show or switch the model"},
		{"/models", "list installed models"},
		{"/system", "show the system prompt"},
		{"/title", "show the chat title"},
		{"/stats", "toggle timing and token counts"},
		{"/exit", "leave"},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render(r[0]), r[1])
	}
}

// printMessage writes one message of a transcript.
func printMessage(w io.Writer, m model.Message) {
	header := UserStyle.Render(m.Role.DisplayName())
	if m.Role == model.RoleAssistant {
		header = AssistantStyle.Render(m.Role.DisplayName())
		if m.Model != "" {
			header += DimStyle.Render(" (" + m.Model + ")")
		}
	}
	fmt.Fprintln(w, header)

	t := model.ParseThinking(m.Content)
	if m.Role == model.RoleAssistant && t.HasReasoning() {
		fmt.Fprintln(w, ThinkingStyle.Render(strings.TrimSpace(t.Reasoning)))
		fmt.Fprintln(w, t.Answer)
	} else {
		fmt.Fprintln(w, m.Content)
	}
	fmt.Fprintln(w)
}
