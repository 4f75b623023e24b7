package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Outcome is what an instrumented invocation reports when it ends.
type Outcome struct {
	Status      string
	ExitCode    int
	StdoutLines int
	StderrLines int
	Err         error
}

// InvocationTracker spans and meters one invocation. A nil Metrics skips
// metric recording.
type InvocationTracker struct {
	ID         string
	Subcommand string
	Metrics    *InvocationMetrics

	start time.Time
	span  trace.Span
}

// StartInvocation starts the invocation span and marks it active.
func StartInvocation(ctx context.Context, id, subcommand, arg string, metrics *InvocationMetrics) (context.Context, *InvocationTracker) {
	ctx, span := Tracer().Start(ctx, SpanInvocation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrInvocationID, id),
			attribute.String(AttrSubcommand, subcommand),
		),
	)
	if arg != "" {
		span.SetAttributes(attribute.String(AttrArgument, arg))
	}

	t := &InvocationTracker{
		ID:         id,
		Subcommand: subcommand,
		Metrics:    metrics,
		start:      time.Now(),
		span:       span,
	}
	if metrics != nil {
		metrics.RecordStart(ctx, subcommand)
	}
	return ctx, t
}

// End closes the span and records the outcome.
func (t *InvocationTracker) End(ctx context.Context, out Outcome) {
	d := time.Since(t.start)

	t.span.SetAttributes(
		attribute.String(AttrStatus, out.Status),
		attribute.Int(AttrExitCode, out.ExitCode),
	)
	if out.Err != nil {
		t.span.RecordError(out.Err)
		t.span.SetStatus(codes.Error, out.Err.Error())
	} else {
		t.span.SetStatus(codes.Ok, "")
	}
	t.span.End()

	if t.Metrics != nil {
		t.Metrics.RecordEnd(ctx, t.Subcommand, out.Status, d, out.StdoutLines, out.StderrLines)
	}
}
