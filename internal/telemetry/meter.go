package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultMetricsInterval is the export period when none is configured.
// Most runs end before it elapses and export once, on Shutdown.
const DefaultMetricsInterval = 60 * time.Second

// meterProvider exports the fetch metrics of one command run
func (c *collector) meterProvider(ctx context.Context, mc *MetricsConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(c.endpoint)}
	if c.insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(c.headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(c.headers))
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(c.resource),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(mc.GetInterval()),
		)),
	), nil
}
