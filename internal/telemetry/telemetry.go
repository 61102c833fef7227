package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of one command run.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	shutdowns      []func(context.Context) error
}

// Option is a function that configures the telemetry setup
type Option func(*telemetryConfig)

type telemetryConfig struct {
	config *Config
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(tc *telemetryConfig) {
		tc.config = cfg
	}
}

// New builds the providers a command run reports through. Each signal that is
// not enabled gets a no-op provider; with nothing enabled no exporter is
// created. The caller must call Shutdown before the command exits.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	tc := &telemetryConfig{}
	for _, opt := range opts {
		opt(tc)
	}

	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}

	cfg := tc.config
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return t, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	tracing := cfg.Tracing != nil && cfg.Tracing.Enabled
	metrics := cfg.Metrics != nil && cfg.Metrics.Enabled
	if !tracing && !metrics {
		slog.Debug("Telemetry enabled without any signal")
		return t, nil
	}

	c, err := newCollector(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if tracing {
		tp, err := c.tracerProvider(ctx, cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)

		otel.SetTracerProvider(tp)
		// Outgoing feed requests carry W3C trace context, see httpclient.
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if metrics {
		mp, err := c.meterProvider(ctx, cfg.Metrics)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create meter provider: %w", err)
		}
		t.meterProvider = mp
		t.shutdowns = append(t.shutdowns, mp.Shutdown)
		otel.SetMeterProvider(mp)
	}

	if c.insecure {
		slog.Warn("Telemetry is exported over plain HTTP", "endpoint", c.endpoint)
	}
	slog.Debug("Telemetry initialized",
		"service_name", cfg.GetServiceName(),
		"service_version", cfg.GetServiceVersion(),
		"endpoint", c.endpoint,
		"tracing", tracing,
		"metrics", metrics,
	)
	return t, nil
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// Shutdown flushes pending spans and metrics. Calling it again reports the
// providers as already closed.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range t.shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
