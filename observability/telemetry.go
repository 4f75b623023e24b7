package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/ollamacmd/component"
	"github.com/kbukum/ollamacmd/logger"
)

// Telemetry is the lifecycle component owning the tracer and meter
// providers.
type Telemetry struct {
	svc     ServiceInfo
	cfg     Config
	log     *logger.Logger
	metrics *InvocationMetrics

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Component = (*Telemetry)(nil)

// NewTelemetry creates the component. Invocation metrics are bound to the
// global meter, which forwards to the OTLP provider once Start installs it.
func NewTelemetry(svc ServiceInfo, cfg Config, log *logger.Logger) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	metrics, err := NewInvocationMetrics(Meter())
	if err != nil {
		return nil, err
	}
	return &Telemetry{svc: svc, cfg: cfg, log: log.WithComponent("telemetry"), metrics: metrics}, nil
}

// Metrics returns the invocation instruments.
func (t *Telemetry) Metrics() *InvocationMetrics { return t.metrics }

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Start installs the exporters when enabled.
func (t *Telemetry) Start(ctx context.Context) error {
	if !t.cfg.Enabled {
		t.log.Debug("telemetry disabled")
		return nil
	}
	tp, err := InitTracer(ctx, t.svc, t.cfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	mp, err := InitMeter(ctx, t.svc, t.cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: %w", err)
	}
	t.tp, t.mp = tp, mp

	t.log.Info("telemetry exporting", logger.Fields(
		"endpoint", t.cfg.Endpoint,
		"sample_rate", t.cfg.SampleRate,
		"interval", t.cfg.Interval.String(),
	))
	return nil
}

// Stop flushes and shuts down the providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
		t.tp = nil
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
		t.mp = nil
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (t *Telemetry) Health(ctx context.Context) component.Health {
	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	if !t.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp=%s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
