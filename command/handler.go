package command

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/ollamacmd/dispatch"
	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/logger"
	"github.com/kbukum/ollamacmd/models"
	"github.com/kbukum/ollamacmd/observability"
	"github.com/kbukum/ollamacmd/process"
)

// Submitter queues work without blocking. *dispatch.Dispatcher satisfies it.
type Submitter interface {
	Submit(task dispatch.Task) error
}

// Handler executes parsed commands.
type Handler struct {
	runner   *process.Runner
	registry *models.Registry
	queue    Submitter
	metrics  *observability.InvocationMetrics
	log      *logger.Logger
}

// Deps are the collaborators of a Handler. Metrics and Log are optional; a
// nil Log selects logger.Get("command").
type Deps struct {
	Runner   *process.Runner
	Registry *models.Registry
	Queue    Submitter
	Metrics  *observability.InvocationMetrics
	Log      *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		runner:   d.Runner,
		registry: d.Registry,
		queue:    d.Queue,
		metrics:  d.Metrics,
		log:      logger.Named(d.Log, "command"),
	}
}

// Registry returns the model registry.
func (h *Handler) Registry() *models.Registry { return h.registry }

// Ticket tracks one accepted command.
type Ticket struct {
	ID  string
	Sub string

	done   chan struct{}
	once   sync.Once
	result process.Result
	err    error
}

func newTicket(id, sub string) *Ticket {
	return &Ticket{ID: id, Sub: sub, done: make(chan struct{})}
}

func (t *Ticket) finish(res process.Result, err error) {
	t.once.Do(func() {
		t.result, t.err = res, err
		close(t.done)
	})
}

// Done is closed once the terminal message has been emitted.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Result returns the process outcome. It is the zero Result for "model".
// Only valid after Done is closed.
func (t *Ticket) Result() process.Result { return t.result }

// Err returns the failure, if any. Only valid after Done is closed.
func (t *Ticket) Err() error { return t.err }

// Wait blocks until the ticket is done or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute parses line and runs it. Every accepted or rejected line produces
// exactly one terminal message on sink. sink may receive messages from
// several invocations at once and must be safe for concurrent use.
//
// The returned error reports rejection (usage, busy) or, for "model", an
// unknown name. Process failures are reported through the Ticket.
func (h *Handler) Execute(ctx context.Context, line string, sink feedback.Sink) (*Ticket, error) {
	if sink == nil {
		sink = feedback.Discard
	}
	cmd, err := Parse(line)
	if err != nil {
		sink.Emit(feedback.Final(feedback.KeyUsage))
		return nil, err
	}
	return h.ExecuteCommand(ctx, cmd, sink)
}

// ExecuteCommand runs an already parsed command.
func (h *Handler) ExecuteCommand(ctx context.Context, cmd Command, sink feedback.Sink) (*Ticket, error) {
	if sink == nil {
		sink = feedback.Discard
	}
	if cmd.Sub == SubModel {
		return h.selectModel(cmd.Arg, sink)
	}

	sub, ok := process.ParseSubCommand(cmd.Sub)
	if !ok {
		sink.Emit(feedback.Final(feedback.KeyUsage))
		return nil, apperrors.InvalidInput("subcommand", "unknown sub-command "+cmd.Sub)
	}

	arg := ""
	if sub == process.SubRun {
		arg = cmd.Arg
		if arg == "" {
			arg, _ = h.registry.Current()
		}
		if arg == "" {
			sink.Emit(feedback.Final(feedback.KeyUsage))
			return nil, apperrors.MissingField("model")
		}
		// An empty cache means list has not run yet; let ollama decide.
		if h.registry.Len() > 0 && !h.registry.IsValid(arg) {
			sink.Emit(feedback.Final(feedback.KeyModelNotFound, arg))
			return nil, apperrors.ModelNotFound(arg)
		}
	}

	inv := h.runner.Invocation(sub, arg)
	out := feedback.Tagged(sink, inv.ID)
	ticket := newTicket(inv.ID, sub.String())

	out.Emit(runningStatus(inv))

	err := h.queue.Submit(func(taskCtx context.Context) {
		res := h.run(taskCtx, inv, out)
		ticket.finish(res, res.Err)
	})
	if err != nil {
		h.log.WithContext(ctx).Warn("command rejected", logger.MergeWithError(logger.Fields(
			logger.FieldInvocationID, inv.ID,
			logger.FieldSubcommand, sub.String(),
		), err))
		if h.metrics != nil {
			h.metrics.RecordRejected(ctx, sub.String())
		}
		out.Emit(feedback.Final(rejectionKey(err)))
		return nil, err
	}
	return ticket, nil
}

// run executes inv on a worker goroutine.
func (h *Handler) run(ctx context.Context, inv process.Invocation, out feedback.Sink) process.Result {
	ctx = logger.ContextWithInvocationID(ctx, inv.ID)
	ctx, tracker := observability.StartInvocation(ctx, inv.ID, inv.SubCommand.String(), inv.Arg, h.metrics)

	sink := out
	var collector *models.ListCollector
	if inv.SubCommand == process.SubList {
		collector = &models.ListCollector{}
		sink = feedback.Multi(out, collector)
	}

	res := h.runner.Run(ctx, inv, sink)

	tracker.End(ctx, observability.Outcome{
		Status:      res.Status.String(),
		ExitCode:    res.ExitCode,
		StdoutLines: res.StdoutLines,
		StderrLines: res.StderrLines,
		Err:         res.Err,
	})

	if collector != nil && res.OK() {
		names := collector.Names()
		h.registry.SetModels(names)
		h.log.WithContext(ctx).Debug("model cache refreshed", logger.Fields("models", len(names)))
	}
	return res
}

func (h *Handler) selectModel(name string, sink feedback.Sink) (*Ticket, error) {
	ticket := newTicket(uuid.NewString(), SubModel)
	out := feedback.Tagged(sink, ticket.ID)

	if !h.registry.Select(name, out) {
		err := apperrors.ModelNotFound(name)
		ticket.finish(process.Result{}, err)
		return ticket, err
	}
	out.Emit(feedback.Final(feedback.KeyModelSet, name))
	ticket.finish(process.Result{}, nil)
	return ticket, nil
}

// rejectionKey is the terminal message for a Submit failure. Only a full
// queue means "busy"; a stopped dispatcher is a plain failure.
func rejectionKey(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeQueueFull {
		return feedback.KeyBusy
	}
	return feedback.KeyGenericError
}

func runningStatus(inv process.Invocation) feedback.Message {
	switch inv.SubCommand {
	case process.SubServe:
		return feedback.Status(feedback.KeyServeStarting)
	case process.SubPs:
		return feedback.Status(feedback.KeyPsRunning)
	case process.SubRun:
		return feedback.Status(feedback.KeyRunStarting, inv.Arg)
	default:
		return feedback.Status(feedback.KeyListRunning)
	}
}
