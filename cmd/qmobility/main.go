// Package main provides the Q Mobility terminal assistant.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/qmobility/qmobility/internal/app"
	"github.com/qmobility/qmobility/internal/assistant"
	"github.com/qmobility/qmobility/internal/compose"
	"github.com/qmobility/qmobility/internal/config"
	"github.com/qmobility/qmobility/internal/llm"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// Keep the terminal for the conversation; only warnings reach stderr.
	log := app.NewLogger(zerolog.ConsoleWriter{Out: os.Stderr}, "qmobility", Version, max(cfg.LogLevel, zerolog.WarnLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, nil, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		os.Exit(1)
	}
	defer components.Close()

	r := &repl{
		assistant: components.Assistant,
		in:        os.Stdin,
		out:       os.Stdout,
		prompt:    color.New(color.FgCyan, color.Bold),
		bot:       color.New(color.FgGreen),
		warn:      color.New(color.FgYellow),
	}
	r.banner(components.Fallback.Enabled())
	r.run(ctx)
}

type repl struct {
	assistant *assistant.Assistant
	in        io.Reader
	out       io.Writer

	prompt *color.Color
	bot    *color.Color
	warn   *color.Color
}

func (r *repl) banner(llmEnabled bool) {
	r.bot.Fprintln(r.out, "🚦 Q Mobility: tell me your city, distance and conditions.")
	fmt.Fprintln(r.out, "Examples:")
	for _, ex := range compose.Examples {
		fmt.Fprintf(r.out, "  - %s\n", ex)
	}
	if !llmEnabled {
		r.warn.Fprintln(r.out, "(General questions are answered by rules only; set LLM_ENABLED and GEMINI_API_KEY for open-ended replies.)")
	}
	fmt.Fprintln(r.out, `Type "exit" to quit.`)
}

func (r *repl) run(ctx context.Context) {
	scanner := bufio.NewScanner(r.in)
	for {
		r.prompt.Fprint(r.out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if assistant.IsExit(line) {
			r.bot.Fprintln(r.out, "Goodbye! Travel safe.")
			return
		}
		if ctx.Err() != nil {
			return
		}

		resp := r.assistant.Reply(ctx, line)
		r.bot.Fprint(r.out, "Q Mobility: ")
		if resp.Status == llm.StatusUnavailable {
			r.warn.Fprintln(r.out, resp.Text)
			continue
		}
		fmt.Fprintln(r.out, resp.Text)
	}
}
