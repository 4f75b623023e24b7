package main

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/ollamacmd/command"
	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/process"
)

// Exit codes of the one-shot commands besides the process's own.
const (
	exitUsage    = 2
	exitTimeout  = 124
	exitLaunch   = 127
	exitCanceled = 130
)

func init() {
	rootCmd.AddCommand(
		oneShotCmd(command.SubList, "List the models known to ollama", cobra.NoArgs),
		oneShotCmd(command.SubServe, "Start the ollama service", cobra.NoArgs),
		oneShotCmd(command.SubPs, "Show running models", cobra.NoArgs),
		oneShotCmd(command.SubRun+" <model>", "Run a model", cobra.ExactArgs(1)),
		oneShotCmd(command.SubModel+" <name>", "Check a model name against the ollama model list", cobra.MinimumNArgs(1)),
	)
}

func oneShotCmd(use, short string, args cobra.PositionalArgs) *cobra.Command {
	sub, _, _ := strings.Cut(use, " ")
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, "warn")
			if err != nil {
				return err
			}
			return runOneShot(cmd.Context(), cfg, cmd.OutOrStdout(), sub, strings.Join(args, " "))
		},
	}
}

// runOneShot runs a single line to completion and maps the outcome to an
// exit code. "model" has no process behind it, so the model list is
// fetched first, without printing it.
func runOneShot(ctx context.Context, cfg *AppConfig, w io.Writer, sub, arg string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	sink := feedback.NewWriterSink(w, rt.translator)

	return rt.app.RunTask(ctx, func(ctx context.Context) error {
		if sub == command.SubModel {
			if err := prefetchModels(ctx, rt.handler, sink); err != nil {
				return err
			}
		}
		ticket, err := rt.handler.ExecuteCommand(ctx, command.Command{Sub: sub, Arg: arg}, sink)
		if err != nil {
			return exitFor(err)
		}
		if ticket.Sub == command.SubModel {
			return nil
		}
		if err := ticket.Wait(ctx); err != nil && ctx.Err() != nil {
			// The dispatcher cancels the run on shutdown.
			return &exitError{code: exitCanceled, msg: "interrupted"}
		}
		return exitForResult(ticket.Result())
	})
}

// prefetchModels fills the model cache with a "list" whose output is
// dropped. Only its failure reaches sink.
func prefetchModels(ctx context.Context, h *command.Handler, sink feedback.Sink) error {
	failures := feedback.SinkFunc(func(msg feedback.Message) {
		if msg.Terminal && msg.IsError() {
			sink.Emit(msg)
		}
	})
	ticket, err := h.ExecuteCommand(ctx, command.Command{Sub: command.SubList}, failures)
	if err != nil {
		return exitFor(err)
	}
	if err := ticket.Wait(ctx); err != nil {
		return exitForResult(ticket.Result())
	}
	return nil
}

// exitFor maps a rejected command to an exit code. The feedback line has
// already been printed, so the error carries no message of its own.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return err
	}
	switch appErr.Code {
	case apperrors.ErrCodeModelNotFound, apperrors.ErrCodeQueueFull:
		return &exitError{code: 1, msg: appErr.Message}
	default:
		return &exitError{code: exitUsage, msg: appErr.Message}
	}
}

func exitForResult(res process.Result) error {
	switch res.Status {
	case process.StatusSucceeded:
		return nil
	case process.StatusFailed:
		if res.ExitCode > 0 {
			return &exitError{code: res.ExitCode}
		}
		return &exitError{code: 1}
	case process.StatusTimedOut:
		return &exitError{code: exitTimeout}
	case process.StatusLaunchError:
		return &exitError{code: exitLaunch}
	case process.StatusCanceled:
		return &exitError{code: exitCanceled}
	default:
		return &exitError{code: 1}
	}
}
