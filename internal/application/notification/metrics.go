package notification

import "context"

// Metrics records fan-out and webhook outcomes
type Metrics interface {
	RecordDispatch(ctx context.Context, provider string, result *DispatchResult, err error)
	RecordWebhook(ctx context.Context, outcome Outcome)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) RecordDispatch(context.Context, string, *DispatchResult, error) {}

func (NopMetrics) RecordWebhook(context.Context, Outcome) {}
