package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/studioflow/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultServiceName = "studioflow"

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	// Enabled controls whether tracing is active. When false, a no-op
	// tracer is returned.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exporter selects the export backend: "none", "stdout" or "otlp".
	Exporter string `mapstructure:"exporter" yaml:"exporter"`

	// OTLPEndpoint is the collector address for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// TracerProvider owns the OpenTelemetry provider used for run spans.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

// NewTracerProvider builds a provider from cfg. Extra span processors are
// attached as-is, which lets tests inspect spans in memory.
func NewTracerProvider(cfg TracingConfig, extra ...sdktrace.SpanProcessor) (*TracerProvider, error) {
	if !cfg.Enabled {
		return &TracerProvider{tracer: noop.NewTracerProvider().Tracer("noop")}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	case "otlp":
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err = otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	for _, sp := range extra {
		opts = append(opts, sdktrace.WithSpanProcessor(sp))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return &TracerProvider{provider: provider, tracer: provider.Tracer(serviceName), enabled: true}, nil
}

// Tracer returns the configured tracer; it is a no-op tracer when disabled.
func (p *TracerProvider) Tracer() trace.Tracer { return p.tracer }

func (p *TracerProvider) Enabled() bool { return p.enabled }

// Shutdown flushes pending spans.
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// SpanHooks turns step and simulation events into spans.
type SpanHooks struct {
	tracer trace.Tracer

	mu    sync.Mutex
	steps map[string]trace.Span
}

// NewSpanHooks creates hooks recording spans with tracer.
func NewSpanHooks(tracer trace.Tracer) *SpanHooks {
	return &SpanHooks{tracer: tracer, steps: make(map[string]trace.Span)}
}

// Hooks returns the lifecycle callbacks.
func (h *SpanHooks) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepStart:  h.stepStart,
		OnStepFinish: h.stepFinish,
		OnSimulation: h.simulation,
	}
}

func stepKey(e *domain.StepEvent) string {
	return fmt.Sprintf("%s/%d", e.RunID, e.Index)
}

func (h *SpanHooks) stepStart(ctx context.Context, e *domain.StepEvent) {
	_, span := h.tracer.Start(ctx, "measure."+e.Measure,
		trace.WithTimestamp(e.Timestamp),
		trace.WithAttributes(
			attribute.String("run.id", e.RunID),
			attribute.Int("step.index", e.Index),
			attribute.String("measure.kind", string(e.Kind)),
		),
	)
	h.mu.Lock()
	h.steps[stepKey(e)] = span
	h.mu.Unlock()
}

func (h *SpanHooks) stepFinish(_ context.Context, e *domain.StepEvent) {
	key := stepKey(e)
	h.mu.Lock()
	span, ok := h.steps[key]
	delete(h.steps, key)
	h.mu.Unlock()
	if !ok {
		return
	}
	if e.Result != nil {
		span.SetAttributes(
			attribute.String("measure.result", string(e.Result.Value)),
			attribute.Int("measure.warnings", len(e.Result.Warnings)),
		)
	}
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End(trace.WithTimestamp(e.Timestamp))
}

func (h *SpanHooks) simulation(ctx context.Context, e *domain.SimulationEvent) {
	start := e.Timestamp.Add(-e.Duration)
	if e.Duration <= 0 {
		start = e.Timestamp.Add(-time.Nanosecond)
	}
	_, span := h.tracer.Start(ctx, "energyplus.simulation",
		trace.WithTimestamp(start),
		trace.WithAttributes(
			attribute.String("run.id", e.RunID),
			attribute.Int("energyplus.warnings", e.Warnings),
			attribute.Int("energyplus.severe", e.Severe),
		),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End(trace.WithTimestamp(e.Timestamp))
}
