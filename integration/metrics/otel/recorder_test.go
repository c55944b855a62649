package otel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/praxislabs/cqrs/core/metrics"
	"github.com/praxislabs/cqrs/integration/metrics/otel"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	collected := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			collected[m.Name] = m
		}
	}
	return collected
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("counters accumulate per metric name", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		recorder := otel.NewRecorder(provider)
		ctx := context.Background()

		recorder.Inc(ctx, metrics.CommandProcessed, "TransferFunds")
		recorder.Inc(ctx, metrics.CommandProcessed, "TransferFunds")
		recorder.Inc(ctx, metrics.CommandSuccess, "TransferFunds")

		collected := collect(t, reader)

		processed, ok := collected["cqrs."+metrics.CommandProcessed]
		require.True(t, ok)
		sum, ok := processed.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(2), sum.DataPoints[0].Value)

		_, ok = collected["cqrs."+metrics.CommandSuccess]
		assert.True(t, ok)
	})

	t.Run("durations land in a histogram", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		recorder := otel.NewRecorder(provider)

		recorder.Observe(context.Background(), metrics.QueryDuration, "GetBalance", 25*time.Millisecond)

		collected := collect(t, reader)

		duration, ok := collected["cqrs."+metrics.QueryDuration]
		require.True(t, ok)
		hist, ok := duration.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
		assert.InDelta(t, 25, hist.DataPoints[0].Sum, 1)
	})

	t.Run("request types separate data points", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		recorder := otel.NewRecorder(provider)
		ctx := context.Background()

		recorder.Inc(ctx, metrics.QueryProcessed, "GetBalance")
		recorder.Inc(ctx, metrics.QueryProcessed, "ListAccounts")

		collected := collect(t, reader)

		processed, ok := collected["cqrs."+metrics.QueryProcessed]
		require.True(t, ok)
		sum, ok := processed.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, sum.DataPoints, 2)
	})
}
