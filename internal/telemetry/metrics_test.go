package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewFetchMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewFetchMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates instruments with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewFetchMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.fetchTotal)
		assert.NotNil(t, metrics.fetchDuration)
	})
}

func TestFetchMetrics_RecordFetch(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *FetchMetrics
		assert.NotPanics(t, func() {
			metrics.RecordFetch(context.Background(), "gbfs.velobixi.com", time.Second, true)
		})
	})

	t.Run("records counter and histogram per outcome", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewFetchMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.RecordFetch(ctx, "gbfs.velobixi.com", 1500*time.Millisecond, true)
		metrics.RecordFetch(ctx, "gbfs.velobixi.com", 200*time.Millisecond, true)
		metrics.RecordFetch(ctx, "tor.publicbikesystem.net", 3*time.Second, false)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))

		var counterSeen, histogramSeen bool
		for _, scope := range rm.ScopeMetrics {
			if scope.Scope.Name != FetchMetricsMeterName {
				continue
			}
			for _, m := range scope.Metrics {
				switch m.Name {
				case "gbfs_client_fetch_total":
					sum, ok := m.Data.(metricdata.Sum[int64])
					require.True(t, ok, "expected int64 sum")
					counterSeen = true

					var success, failure int64
					for _, dp := range sum.DataPoints {
						outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
						switch outcome.AsString() {
						case outcomeSuccess:
							success += dp.Value
						case outcomeFailure:
							failure += dp.Value
						}
					}
					assert.Equal(t, int64(2), success)
					assert.Equal(t, int64(1), failure)
				case "gbfs_client_fetch_duration_seconds":
					hist, ok := m.Data.(metricdata.Histogram[float64])
					require.True(t, ok, "expected float64 histogram")
					histogramSeen = true

					var total float64
					for _, dp := range hist.DataPoints {
						total += dp.Sum
					}
					assert.InDelta(t, 4.7, total, 0.001)
				}
			}
		}
		assert.True(t, counterSeen, "fetch counter should be exported")
		assert.True(t, histogramSeen, "fetch histogram should be exported")
	})
}
