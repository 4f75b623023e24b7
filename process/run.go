package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/logger"
)

// Runner launches the ollama executable and supervises each run.
// A Runner is safe for concurrent use.
type Runner struct {
	cfg Config
	log *logger.Logger
}

// NewRunner creates a Runner. A nil log selects logger.Get("process").
func NewRunner(cfg Config, log *logger.Logger) *Runner {
	cfg.ApplyDefaults()
	return &Runner{cfg: cfg, log: logger.Named(log, "process")}
}

// Config returns the runner configuration with defaults applied.
func (r *Runner) Config() Config { return r.cfg }

// Invocation builds an invocation for sub using the configured timeout.
func (r *Runner) Invocation(sub SubCommand, arg string) Invocation {
	return NewInvocation(sub, arg, r.cfg.TimeoutFor(sub))
}

// Run executes inv, streaming output lines to sink, and returns once the
// process has exited or been killed and both drains have finished.
//
// Exactly one terminal message is emitted to sink per call. Emissions are
// serialized, so sink does not need to be safe for concurrent use. Run never
// panics on behalf of the sink or the streams.
func (r *Runner) Run(ctx context.Context, inv Invocation, sink feedback.Sink) Result {
	if sink == nil {
		sink = feedback.Discard
	}
	out := feedback.Locked(sink)
	start := time.Now()

	res := r.supervise(ctx, inv, out)
	res.InvocationID = inv.ID
	res.SubCommand = inv.SubCommand
	res.Duration = time.Since(start)

	r.finish(inv, res, out)
	return res
}

// finish emits the single terminal message and logs the outcome.
func (r *Runner) finish(inv Invocation, res Result, out feedback.Sink) {
	fields := logger.Merge(logger.Fields(
		logger.FieldInvocationID, inv.ID,
		logger.FieldSubcommand, inv.SubCommand.String(),
		logger.FieldStatus, res.Status.String(),
		logger.FieldExitCode, res.ExitCode,
	), logger.DurationFields("run", res.Duration))

	var msg feedback.Message
	switch res.Status {
	case StatusSucceeded:
		msg = feedback.Final(inv.SuccessKey, inv.SuccessArgs...)
		r.log.Debug("command finished", fields)
	case StatusTimedOut:
		msg = feedback.Final(feedback.KeyTimeout)
		r.log.Warn("command timed out", fields)
	default:
		msg = feedback.Final(feedback.KeyGenericError)
		if res.Err != nil {
			fields = logger.Merge(fields, logger.ErrorFields("run", res.Err))
		}
		r.log.Warn("command failed", fields)
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("feedback sink panicked", logger.Fields(
					logger.FieldInvocationID, inv.ID,
					logger.FieldError, fmt.Sprint(p),
				))
			}
		}()
		out.Emit(msg)
	}()
}

func (r *Runner) supervise(ctx context.Context, inv Invocation, out feedback.Sink) (res Result) {
	res.ExitCode = -1

	if err := ctx.Err(); err != nil {
		res.Status = StatusCanceled
		res.Err = apperrors.Canceled(inv.SubCommand.String(), err)
		return res
	}

	cmd := exec.Command(r.cfg.Binary, inv.Args()...) //nolint:gosec // the binary and its sub-command are configuration
	cmd.Dir = r.cfg.Dir
	cmd.Env = mergeEnv(r.cfg.Env)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return launchFailure(r.cfg.Binary, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return launchFailure(r.cfg.Binary, err)
	}
	if err := cmd.Start(); err != nil {
		// Start closes both pipes on failure.
		return launchFailure(r.cfg.Binary, classifyLaunchError(err))
	}

	r.log.Debug("command started", logger.Fields(
		logger.FieldInvocationID, inv.ID,
		logger.FieldSubcommand, inv.SubCommand.String(),
		logger.FieldPID, cmd.Process.Pid,
	))

	var deadline <-chan time.Time
	if inv.Timeout > 0 {
		timer := time.NewTimer(inv.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	p := &supervised{
		cmd:    cmd,
		pipes:  []io.Closer{stdout, stderr},
		grace:  r.cfg.GracePeriod,
		failed: make(chan error, 2),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go p.drain(&wg, stdout, feedback.StreamStdout, "", r.cfg.MaxLineBytes, out, &p.stdoutLines)
	go p.drain(&wg, stderr, feedback.StreamStderr, r.cfg.ErrorPrefix, r.cfg.MaxLineBytes, out, &p.stderrLines)

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	// Every return below happens after drained is closed.
	defer func() {
		res.StdoutLines = p.stdoutLines
		res.StderrLines = p.stderrLines
	}()

	// Phase one: both streams reach end-of-stream.
	select {
	case <-drained:
	case <-deadline:
		p.terminate(drained, false)
		return timedOut(inv)
	case <-ctx.Done():
		p.terminate(drained, true)
		return canceled(inv, ctx.Err())
	case err := <-p.failed:
		p.terminate(drained, false)
		res.Status = StatusStreamError
		res.Err = err
		return res
	}

	// A drain may fail on its last read and still reach end-of-stream.
	select {
	case err := <-p.failed:
		p.terminate(drained, false)
		res.Status = StatusStreamError
		res.Err = err
		return res
	default:
	}

	// Phase two: the process exits. Wait is safe now that reads are done.
	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waited:
	case <-deadline:
		killProcessGroup(cmd)
		<-waited
		return timedOut(inv)
	case <-ctx.Done():
		signalProcessGroup(cmd)
		select {
		case <-waited:
		case <-time.After(r.cfg.GracePeriod):
			killProcessGroup(cmd)
			<-waited
		}
		return canceled(inv, ctx.Err())
	}

	res.ExitCode = cmd.ProcessState.ExitCode()
	if res.ExitCode == 0 && waitErr == nil {
		res.Status = StatusSucceeded
		return res
	}
	res.Status = StatusFailed
	res.Err = apperrors.NonZeroExit(inv.SubCommand.String(), res.ExitCode).WithCause(waitErr)
	return res
}

// supervised is the per-run state shared by the drains and the controller.
type supervised struct {
	cmd    *exec.Cmd
	pipes  []io.Closer
	grace  time.Duration
	failed chan error

	stdoutLines int
	stderrLines int
}

// terminate stops the process group, unblocks the drains by closing the
// pipes, joins them and reaps the process. A graceful stop sends SIGTERM
// first and escalates to SIGKILL after the grace period.
func (p *supervised) terminate(drained <-chan struct{}, graceful bool) {
	if graceful {
		signalProcessGroup(p.cmd)
	} else {
		killProcessGroup(p.cmd)
	}
	for _, c := range p.pipes {
		_ = c.Close()
	}
	<-drained

	waited := make(chan struct{})
	go func() {
		_ = p.cmd.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(p.grace):
		killProcessGroup(p.cmd)
		<-waited
	}
}

func launchFailure(binary string, err error) Result {
	return Result{
		Status:   StatusLaunchError,
		ExitCode: -1,
		Err:      apperrors.LaunchFailed(binary, err),
	}
}

func timedOut(inv Invocation) Result {
	return Result{
		Status:   StatusTimedOut,
		ExitCode: -1,
		Err:      apperrors.Timeout(inv.SubCommand.String()).WithDetail("timeout", inv.Timeout.String()),
	}
}

func canceled(inv Invocation, cause error) Result {
	return Result{
		Status:   StatusCanceled,
		ExitCode: -1,
		Err:      apperrors.Canceled(inv.SubCommand.String(), cause),
	}
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	return append(env, extra...)
}
