package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, svc ServiceInfo, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the package meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// InvocationMetrics holds the instruments recorded around every invocation.
type InvocationMetrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	rejected metric.Int64Counter
	lines    metric.Int64Counter
}

// NewInvocationMetrics creates the instruments on meter.
func NewInvocationMetrics(meter metric.Meter) (*InvocationMetrics, error) {
	total, err := meter.Int64Counter("ollama.invocations",
		metric.WithDescription("Invocations by subcommand and terminal status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama.invocations counter: %w", err)
	}

	duration, err := meter.Float64Histogram("ollama.invocation.duration",
		metric.WithDescription("Wall time of invocations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama.invocation.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("ollama.invocations.active",
		metric.WithDescription("Invocations currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama.invocations.active counter: %w", err)
	}

	rejected, err := meter.Int64Counter("ollama.invocations.rejected",
		metric.WithDescription("Invocations refused because the queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama.invocations.rejected counter: %w", err)
	}

	lines, err := meter.Int64Counter("ollama.output.lines",
		metric.WithDescription("Output lines streamed by stream"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama.output.lines counter: %w", err)
	}

	return &InvocationMetrics{
		total:    total,
		duration: duration,
		active:   active,
		rejected: rejected,
		lines:    lines,
	}, nil
}

// RecordStart increments the active count.
func (m *InvocationMetrics) RecordStart(ctx context.Context, subcommand string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrSubcommand, subcommand)))
}

// RecordEnd decrements the active count and records the outcome.
func (m *InvocationMetrics) RecordEnd(ctx context.Context, subcommand, status string, d time.Duration, stdoutLines, stderrLines int) {
	sub := attribute.String(AttrSubcommand, subcommand)
	m.active.Add(ctx, -1, metric.WithAttributes(sub))
	m.total.Add(ctx, 1, metric.WithAttributes(sub, attribute.String(AttrStatus, status)))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(sub))
	m.lines.Add(ctx, int64(stdoutLines), metric.WithAttributes(sub, attribute.String("stream", "stdout")))
	m.lines.Add(ctx, int64(stderrLines), metric.WithAttributes(sub, attribute.String("stream", "stderr")))
}

// RecordRejected counts a submission refused by the dispatcher.
func (m *InvocationMetrics) RecordRejected(ctx context.Context, subcommand string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrSubcommand, subcommand)))
}
