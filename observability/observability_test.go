package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/ollamacmd/component"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("sampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
	if got := sampler(0.5).Description(); got == "AlwaysOnSampler" || got == "AlwaysOffSampler" {
		t.Errorf("sampler(0.5) = %s", got)
	}
}

func TestInvocationTracker(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewInvocationMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewInvocationMetrics: %v", err)
	}

	ctx := context.Background()
	ctx, tr := StartInvocation(ctx, "inv-1", "list", "", metrics)
	tr.End(ctx, Outcome{Status: "succeeded", ExitCode: 0, StdoutLines: 3})

	_, tr = StartInvocation(context.Background(), "inv-2", "run", "llama3", metrics)
	tr.End(context.Background(), Outcome{Status: "timed_out", ExitCode: -1, Err: errors.New("deadline")})

	ended := spans.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(ended))
	}
	if ended[0].Name() != SpanInvocation {
		t.Errorf("span name = %q", ended[0].Name())
	}
	if ended[1].Status().Code != codes.Error {
		t.Errorf("timed out span status = %v", ended[1].Status().Code)
	}
	var sawArg bool
	for _, kv := range ended[1].Attributes() {
		if string(kv.Key) == AttrArgument && kv.Value.AsString() == "llama3" {
			sawArg = true
		}
	}
	if !sawArg {
		t.Error("run span lacks the model argument")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	total := findSum(t, rm, "ollama.invocations")
	if total != 2 {
		t.Errorf("ollama.invocations = %d, want 2", total)
	}
	if active := findSum(t, rm, "ollama.invocations.active"); active != 0 {
		t.Errorf("active = %d, want 0", active)
	}
	if lines := findSum(t, rm, "ollama.output.lines"); lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
}

func TestRecordRejected(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewInvocationMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	metrics.RecordRejected(context.Background(), "serve")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	if got := findSum(t, rm, "ollama.invocations.rejected"); got != 1 {
		t.Errorf("rejected = %d", got)
	}
}

// findSum adds up every data point of the named int64 sum.
func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s has data type %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestTelemetryDisabled(t *testing.T) {
	tel, err := NewTelemetry(ServiceInfo{Name: "ollamacmd"}, Config{}, nil)
	if err != nil {
		t.Fatalf("NewTelemetry: %v", err)
	}
	if err := tel.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tel.Metrics() == nil {
		t.Error("metrics are nil")
	}
	if h := tel.Health(context.Background()); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("health = %+v", h)
	}
	if d := tel.Describe(); d.Details != "disabled" {
		t.Errorf("describe = %+v", d)
	}
	if err := tel.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestTelemetryEnabledStartsAndStops(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	tel, err := NewTelemetry(ServiceInfo{Name: "ollamacmd", Version: "test"}, Config{
		Enabled:  true,
		Endpoint: "127.0.0.1:1",
		Insecure: true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tel.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Nothing was recorded, so shutdown has nothing to export.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = tel.Stop(ctx)
}

func TestServiceHealth(t *testing.T) {
	sh := NewServiceHealth("ollamacmd", "1.0.0")
	sh.AddComponent(component.Health{Name: "dispatcher", Status: component.StatusHealthy})
	if sh.Status != component.StatusHealthy {
		t.Fatalf("status = %s", sh.Status)
	}
	sh.AddComponent(component.Health{Name: "bridge", Status: component.StatusUnhealthy})
	sh.AddComponent(component.Health{Name: "sse-hub", Status: component.StatusDegraded})
	if sh.Status != component.StatusUnhealthy {
		t.Errorf("degraded overrode unhealthy: %s", sh.Status)
	}
	if len(sh.Components) != 3 {
		t.Errorf("components = %d", len(sh.Components))
	}
}
