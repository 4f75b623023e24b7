package main

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kbukum/ollamacmd/command"
	"github.com/kbukum/ollamacmd/feedback"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Read /ollama commands from standard input",
	Long: `console reads one chat line per input line, for example

  /ollama list
  /ollama model llama3

Commands run in the background and their output is printed as it arrives.
A line starting with "?" prints completions for the rest of the line.
"exit" or "quit" (or end of input) waits for running commands and leaves.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "warn")
		if err != nil {
			return err
		}
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return rt.app.RunTask(ctx, func(ctx context.Context) error {
			return runConsole(ctx, rt.handler, cmd.InOrStdin(), feedback.NewWriterSink(cmd.OutOrStdout(), rt.translator))
		})
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// runConsole executes every line of in until end of input, an exit word or
// ctx ending, then waits for the commands it started. Completions are written
// through sink so they never interleave with command output.
func runConsole(ctx context.Context, h *command.Handler, in io.Reader, sink feedback.Sink) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			return nil
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, "?"):
			for _, s := range h.Suggest(strings.TrimPrefix(line, "?")) {
				sink.Emit(feedback.Line(feedback.StreamStdout, s))
			}
			continue
		}

		ticket, err := h.Execute(ctx, line, sink)
		if err != nil || ticket == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ticket.Wait(ctx)
		}()
	}
}
