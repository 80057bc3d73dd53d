// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/ollama"
	"github.com/jeranaias/aloha-tui/internal/session"
)

type askOptions struct {
	save     bool
	system   string
	thinking bool
	raw      bool
	stats    bool
}

func newAskCommand(rt *runtime) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [PROMPT...]",
		Short: "Ask a one-off question",
		Long: `Send one prompt and print the reply.

On a terminal the reply is rendered as markdown once it is complete;
otherwise it streams as plain text. With no prompt, or "-", the prompt is
read from stdin. Reasoning inside <think> blocks is left out unless
--thinking is given.`,
		Example: `  aloha ask "What is a goroutine?"
  git diff | aloha ask "Write a commit message for this diff"
  aloha ask --save --model qwen3:8b "Plan a week of dinners"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, rt.in)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return rt.runAsk(ctx, prompt, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.save, "save", "s", false, "save the exchange as a chat")
	cmd.Flags().StringVar(&opts.system, "system", "", "system prompt for this question (overrides settings)")
	cmd.Flags().BoolVar(&opts.thinking, "thinking", false, "include the model's reasoning")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "never render markdown")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print timing and token counts to stderr")
	return cmd
}

// readPrompt joins args, or reads stdin when there are none or the only one
// is "-".
func readPrompt(args []string, in io.Reader) (string, error) {
	var prompt string
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(io.LimitReader(in, 1<<20))
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		prompt = string(data)
	} else {
		prompt = strings.Join(args, " ")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &UsageError{Reason: "empty prompt", Example: `aloha ask "Why is the sky blue?"`}
	}
	return prompt, nil
}

func (rt *runtime) runAsk(ctx context.Context, prompt string, opts askOptions) error {
	modelName, err := rt.resolveModel(ctx)
	if err != nil {
		return err
	}

	render := !opts.raw && isTerminal(rt.out)
	printer := newThinkingPrinter(rt.out)
	printer.hide = !opts.thinking

	stats := ollama.NewStreamStats()
	onToken := func(token string) {
		stats.RecordFirstToken()
		if !render {
			printer.Write(token)
		}
	}
	if render {
		fmt.Fprint(rt.errOut, DimStyle.Render(modelName+" is replying...")+"\r")
	}

	var (
		reply string
		final ollama.StreamChunk
	)
	if opts.save {
		reply, final, err = rt.askSaved(ctx, modelName, prompt, opts, onToken)
	} else {
		reply, final, err = rt.askOnce(ctx, modelName, prompt, opts, onToken)
	}
	if render {
		// Clear the status line.
		fmt.Fprint(rt.errOut, "\r\033[K")
	}
	if err != nil {
		if !render {
			printer.Close()
		}
		return err
	}

	if render {
		err = rt.renderReply(reply, opts.thinking)
	} else {
		printer.Close()
	}
	if opts.stats {
		stats.Finalize(final)
		fmt.Fprintln(rt.errOut, DimStyle.Render(stats.Format()))
	}
	return err
}

// askOnce streams a reply without touching the chat store.
func (rt *runtime) askOnce(ctx context.Context, modelName, prompt string, opts askOptions, onToken func(string)) (string, ollama.StreamChunk, error) {
	system := opts.system
	if system == "" {
		system = rt.cfg.Settings.ActiveSystemPrompt()
	}
	var msgs []ollama.Message
	if system != "" {
		msgs = append(msgs, ollama.NewSystemMessage(system))
	}
	msgs = append(msgs, ollama.NewUserMessage(prompt))

	var (
		sb    strings.Builder
		final ollama.StreamChunk
	)
	err := rt.client.ChatStream(ctx, ollama.ChatRequest{
		Model:    modelName,
		Messages: msgs,
		Stream:   true,
	}, func(chunk ollama.StreamChunk) {
		if chunk.Done {
			final = chunk
		}
		if chunk.Content == "" {
			return
		}
		sb.WriteString(chunk.Content)
		onToken(chunk.Content)
	})
	return sb.String(), final, err
}

// askSaved runs the exchange through a session so it is stored and titled
// like a chat started in the TUI.
func (rt *runtime) askSaved(ctx context.Context, modelName, prompt string, opts askOptions, onToken func(string)) (string, ollama.StreamChunk, error) {
	store, err := rt.openStore(ctx)
	if err != nil {
		return "", ollama.StreamChunk{}, err
	}
	settings := rt.cfg.Settings
	if opts.system != "" {
		settings.SystemPrompt = opts.system
		settings.EnableSystemPrompt = true
	}
	mgr := session.NewManager(session.Options{
		Client:   rt.client,
		Store:    store,
		Settings: settings,
		Model:    modelName,
		Logger:   rt.log,
		Now:      rt.now,
	})
	res, err := mgr.Send(ctx, prompt, onToken)
	if err != nil {
		return "", ollama.StreamChunk{}, err
	}
	fmt.Fprintln(rt.errOut, DimStyle.Render(fmt.Sprintf("Saved as %q (%s)", res.Chat.Title, shortID(res.Chat.ID))))
	return res.Reply, res.Final, nil
}

// renderReply prints a complete reply as markdown.
func (rt *runtime) renderReply(reply string, thinking bool) error {
	t := model.ParseThinking(reply)
	if thinking && t.Reasoning != "" {
		for _, line := range strings.Split(t.Reasoning, "\n") {
			fmt.Fprintln(rt.out, ThinkingStyle.Render(line))
		}
		fmt.Fprintln(rt.out)
	}
	answer := t.Answer
	if t.InProgress {
		answer = ""
	}

	style := glamour.WithAutoStyle()
	if !ColorsEnabled() {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(terminalWidth(rt.out)-2))
	if err != nil {
		fmt.Fprintln(rt.out, answer)
		return nil
	}
	out, err := r.Render(answer)
	if err != nil {
		fmt.Fprintln(rt.out, answer)
		return nil
	}
	fmt.Fprint(rt.out, out)
	return nil
}
