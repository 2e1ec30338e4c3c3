// Package notification fans events out to registered devices and turns
// store webhooks into events.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/domain/notification"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
)

// BatchFailure records a batch the provider did not accept
type BatchFailure struct {
	Batch int
	Size  int
	Err   error
}

// DispatchResult summarizes one fan-out
type DispatchResult struct {
	// Messages is the number of messages built for reachable devices
	Messages int
	// Skipped counts devices the provider cannot address
	Skipped       int
	Batches       int
	FailedBatches int
	Tickets       []notification.Ticket
	Failures      []BatchFailure
}

// FailedTickets counts tickets the provider marked as errors
func (r *DispatchResult) FailedTickets() int {
	n := 0
	for _, t := range r.Tickets {
		if t.Failed() {
			n++
		}
	}
	return n
}

// Dispatcher sends an event to every reachable device through one provider
type Dispatcher struct {
	provider notification.PushProvider
	logger   *zap.Logger
	metrics  Metrics
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithDispatchMetrics sets the recorder for dispatch results
func WithDispatchMetrics(m Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// NewDispatcher creates a dispatcher for provider
func NewDispatcher(provider notification.PushProvider, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{provider: provider, logger: log, metrics: NopMetrics{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifyAll sends event to every endpoint the provider can address.
//
// Batches go out one after another. A batch the provider fails or refuses is
// recorded and the remaining batches are still sent; NotifyAll then returns
// no error. An invalid event, a cancelled context or any other local failure
// stops the fan-out and is returned together with the partial result.
func (d *Dispatcher) NotifyAll(ctx context.Context, endpoints []device.Token, event notification.Event) (result *DispatchResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "notification.NotifyAll",
		telemetry.WithAttribute(telemetry.SpanAttrProvider, d.provider.Name()),
		telemetry.WithAttribute(telemetry.SpanAttrDevices, len(endpoints)),
	)
	result = &DispatchResult{}
	defer func() {
		telemetry.SetAttribute(span, telemetry.SpanAttrBatches, result.Batches)
		telemetry.SetAttribute(span, telemetry.SpanAttrFailed, result.FailedBatches)
		telemetry.RecordError(span, err)
		span.End()
		d.metrics.RecordDispatch(ctx, d.provider.Name(), result, err)
	}()

	if err := event.Validate(); err != nil {
		return result, err
	}

	messages := make([]notification.Message, 0, len(endpoints))
	for _, ep := range endpoints {
		addr, ok := d.provider.Resolve(ep)
		if !ok {
			result.Skipped++
			continue
		}
		messages = append(messages, notification.Message{
			To:    addr,
			Title: event.Title,
			Body:  event.Body,
			Sound: notification.DefaultSound,
			Data:  event.Data,
		})
	}
	result.Messages = len(messages)

	log := logger.L(ctx, d.logger)
	if result.Skipped > 0 {
		log.Info("devices not reachable through push provider",
			zap.String("provider", d.provider.Name()),
			zap.Int("skipped", result.Skipped),
		)
	}

	for i, batch := range d.provider.Chunk(messages) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Batches++

		tickets, err := d.provider.Send(ctx, batch)
		if err != nil {
			if !notification.IsProviderError(err) {
				return result, fmt.Errorf("send batch %d: %w", i+1, err)
			}
			result.FailedBatches++
			result.Failures = append(result.Failures, BatchFailure{Batch: i + 1, Size: len(batch), Err: err})
			log.Warn("push batch failed",
				zap.String("provider", d.provider.Name()),
				zap.Int("batch", i+1),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
			continue
		}

		result.Tickets = append(result.Tickets, tickets...)
		for _, t := range tickets {
			if t.Failed() {
				log.Warn("push ticket error",
					zap.String("provider", d.provider.Name()),
					zap.String("message", t.Message),
					zap.Any("details", t.Details),
				)
			}
		}
	}

	return result, nil
}
