package notification

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
)

// MeterName scopes the push and webhook instruments
const MeterName = "github.com/shopnotify/backend/notification"

// OTelMetrics records dispatch and webhook outcomes as OpenTelemetry counters
type OTelMetrics struct {
	messages      *telemetry.Counter
	batches       *telemetry.Counter
	failedBatches *telemetry.Counter
	failedTickets *telemetry.Counter
	skipped       *telemetry.Counter
	dispatches    *telemetry.Counter
	fanoutSize    *telemetry.Histogram
	webhooks      *telemetry.Counter
}

var _ Metrics = (*OTelMetrics)(nil)

// NewOTelMetrics registers the instruments on meter
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	var (
		m   OTelMetrics
		err error
	)

	counters := []struct {
		dst              **telemetry.Counter
		name, desc, unit string
	}{
		{&m.messages, "push_messages_total", "Push messages handed to the provider", "{message}"},
		{&m.batches, "push_batches_total", "Provider requests sent", "{batch}"},
		{&m.failedBatches, "push_failed_batches_total", "Batches the provider failed or refused", "{batch}"},
		{&m.failedTickets, "push_failed_tickets_total", "Tickets the provider reported as errors", "{ticket}"},
		{&m.skipped, "push_skipped_devices_total", "Devices the provider cannot address", "{device}"},
		{&m.dispatches, "push_dispatches_total", "Fan-outs by result", "{dispatch}"},
		{&m.webhooks, "webhook_deliveries_total", "Order webhooks by outcome", "{delivery}"},
	}
	for _, c := range counters {
		if *c.dst, err = telemetry.NewCounter(meter, c.name, c.desc, c.unit); err != nil {
			return nil, err
		}
	}

	m.fanoutSize, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "push_fanout_size",
		Description: "Messages built per fan-out",
		Unit:        "{message}",
		Boundaries:  []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordDispatch implements Metrics
func (m *OTelMetrics) RecordDispatch(ctx context.Context, provider string, result *DispatchResult, err error) {
	providerAttr := attribute.String("provider", provider)
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dispatches.Inc(ctx, providerAttr, attribute.String("status", status))
	if result == nil {
		return
	}

	m.messages.Add(ctx, int64(result.Messages), providerAttr)
	m.batches.Add(ctx, int64(result.Batches), providerAttr)
	m.failedBatches.Add(ctx, int64(result.FailedBatches), providerAttr)
	m.failedTickets.Add(ctx, int64(result.FailedTickets()), providerAttr)
	m.skipped.Add(ctx, int64(result.Skipped), providerAttr)
	m.fanoutSize.Record(ctx, float64(result.Messages), providerAttr)
}

// RecordWebhook implements Metrics
func (m *OTelMetrics) RecordWebhook(ctx context.Context, outcome Outcome) {
	m.webhooks.Inc(ctx, attribute.String("outcome", string(outcome)))
}
