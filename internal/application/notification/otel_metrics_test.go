package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/shopnotify/backend/internal/domain/notification"
)

func newManualMetrics(t *testing.T) (*OTelMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewOTelMetrics(provider.Meter(MeterName))
	require.NoError(t, err)
	return m, reader
}

// collectSums flattens int64 sums into name -> attribute string -> value
func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			points := map[string]int64{}
			for _, dp := range sum.DataPoints {
				points[dp.Attributes.Encoded(attribute.DefaultEncoder())] = dp.Value
			}
			out[m.Name] = points
		}
	}
	return out
}

func TestOTelMetrics_RecordDispatch(t *testing.T) {
	m, reader := newManualMetrics(t)

	m.RecordDispatch(context.Background(), "expo", &DispatchResult{
		Messages:      150,
		Skipped:       2,
		Batches:       2,
		FailedBatches: 1,
		Tickets: []notification.Ticket{
			{Status: notification.TicketOK},
			{Status: notification.TicketError, Message: "DeviceNotRegistered"},
		},
	}, nil)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(150), sums["push_messages_total"]["provider=expo"])
	assert.Equal(t, int64(2), sums["push_batches_total"]["provider=expo"])
	assert.Equal(t, int64(1), sums["push_failed_batches_total"]["provider=expo"])
	assert.Equal(t, int64(1), sums["push_failed_tickets_total"]["provider=expo"])
	assert.Equal(t, int64(2), sums["push_skipped_devices_total"]["provider=expo"])
	assert.Equal(t, int64(1), sums["push_dispatches_total"]["provider=expo,status=ok"])
}

func TestOTelMetrics_RecordDispatch_Error(t *testing.T) {
	m, reader := newManualMetrics(t)

	m.RecordDispatch(context.Background(), "expo", nil, errors.New("boom"))

	sums := collectSums(t, reader)
	assert.Equal(t, int64(1), sums["push_dispatches_total"]["provider=expo,status=error"])
	assert.NotContains(t, sums, "push_messages_total")
}

func TestOTelMetrics_RecordWebhook(t *testing.T) {
	m, reader := newManualMetrics(t)

	m.RecordWebhook(context.Background(), OutcomeDispatched)
	m.RecordWebhook(context.Background(), OutcomeDuplicate)
	m.RecordWebhook(context.Background(), OutcomeDispatched)

	webhooks := collectSums(t, reader)["webhook_deliveries_total"]
	assert.Equal(t, int64(2), webhooks["outcome=dispatched"])
	assert.Equal(t, int64(1), webhooks["outcome=duplicate"])
}
