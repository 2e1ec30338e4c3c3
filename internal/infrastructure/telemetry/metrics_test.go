package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
)

func newObservedCore() (zapcore.Core, *observer.ObservedLogs) {
	return observer.New(zapcore.InfoLevel)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	counter, err := telemetry.NewCounter(meter, "push_messages_total", "Push messages sent", "{message}")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Add(ctx, 5, attribute.String("provider", "expo"))
	counter.Inc(ctx, attribute.String("provider", "expo"))

	sum := collect(t, reader)["push_messages_total"].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(6), sum.DataPoints[0].Value)
}

func TestHistogram(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	h, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "push_dispatch_duration_seconds",
		Unit:       "s",
		Boundaries: []float64{0.1, 1, 10},
	})
	require.NoError(t, err)

	h.RecordDuration(context.Background(), 500*time.Millisecond)
	h.Record(context.Background(), 2)

	hist := collect(t, reader)["push_dispatch_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, []float64{0.1, 1, 10}, hist.DataPoints[0].Bounds)
}
