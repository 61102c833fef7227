package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Environment variables carrying the trace a command run joins, as set by
// otel-cli and CI tracing integrations
const (
	EnvTraceParent = "TRACEPARENT"
	EnvTraceState  = "TRACESTATE"
)

// collector is the OTLP/HTTP endpoint both signals of a run are exported to
type collector struct {
	endpoint string
	insecure bool
	headers  map[string]string
	resource *resource.Resource
}

func newCollector(ctx context.Context, cfg *Config) (*collector, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.GetServiceName()),
			semconv.ServiceVersion(cfg.GetServiceVersion()),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return &collector{
		endpoint: cfg.GetEndpoint(),
		insecure: cfg.GetInsecure(),
		headers:  cfg.Headers,
		resource: res,
	}, nil
}

// tracerProvider exports the spans of one command run. The batcher is
// flushed by Shutdown, so runs shorter than the batch timeout still export.
func (c *collector) tracerProvider(ctx context.Context, tc *TracingConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.endpoint)}
	if c.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(c.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(c.headers))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(c.resource),
		sdktrace.WithBatcher(exporter),
		// A run joining a sampled TRACEPARENT keeps the caller's decision.
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tc.GetSampling()))),
	), nil
}

// ParentContext returns ctx carrying the remote span context found under
// EnvTraceParent and EnvTraceState, so a run started from a traced script
// or pipeline step joins that trace. Without them ctx is returned unchanged.
func ParentContext(ctx context.Context, lookupEnv func(string) (string, bool)) context.Context {
	carrier := propagation.MapCarrier{}
	if v, ok := lookupEnv(EnvTraceParent); ok && v != "" {
		carrier["traceparent"] = v
	}
	if v, ok := lookupEnv(EnvTraceState); ok && v != "" {
		carrier["tracestate"] = v
	}
	if len(carrier) == 0 {
		return ctx
	}
	return propagation.TraceContext{}.Extract(ctx, carrier)
}
