// Package telemetry sets up the OpenTelemetry tracer and meter providers of the
// gbfs command and defines the metric instruments recorded for every fetch.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// FetchMetricsMeterName is the name used for the fetch metrics meter
	FetchMetricsMeterName = "github.com/stacklok/gbfs-client/fetch"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// FetchMetrics holds the instruments recorded for every document fetch
type FetchMetrics struct {
	fetchTotal    metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

// NewFetchMetrics creates fetch instruments from provider.
// A nil provider yields nil metrics, and every Record call on nil is a no-op.
func NewFetchMetrics(provider metric.MeterProvider) (*FetchMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(FetchMetricsMeterName)

	fetchTotal, err := meter.Int64Counter(
		"gbfs_client_fetch_total",
		metric.WithDescription("Number of GBFS document fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"gbfs_client_fetch_duration_seconds",
		metric.WithDescription("Duration of GBFS document fetches in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30),
	)
	if err != nil {
		return nil, err
	}

	return &FetchMetrics{
		fetchTotal:    fetchTotal,
		fetchDuration: fetchDuration,
	}, nil
}

// RecordFetch records one fetch of a document from host
func (m *FetchMetrics) RecordFetch(ctx context.Context, host string, duration time.Duration, success bool) {
	if m == nil || m.fetchTotal == nil {
		return
	}

	outcome := outcomeSuccess
	if !success {
		outcome = outcomeFailure
	}
	attrs := metric.WithAttributes(
		attribute.String("host", host),
		attribute.String("outcome", outcome),
	)

	m.fetchTotal.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, duration.Seconds(), attrs)
}
