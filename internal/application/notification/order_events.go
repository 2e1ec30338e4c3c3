package notification

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/domain/notification"
	"github.com/shopnotify/backend/internal/domain/shared"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
)

// Outcome is how a webhook delivery was handled. Every outcome is acknowledged.
type Outcome string

const (
	// OutcomeIgnored means the body was not an order with an id
	OutcomeIgnored Outcome = "ignored"
	// OutcomeRejected means the signature did not match the configured secret
	OutcomeRejected Outcome = "rejected"
	// OutcomeDuplicate means devices were already notified for this order
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeDispatched means the fan-out ran
	OutcomeDispatched Outcome = "dispatched"
	// OutcomeFailed means the fan-out stopped on a local error
	OutcomeFailed Outcome = "failed"
)

// Delivery is one webhook request as received
type Delivery struct {
	Body       []byte
	Signature  string
	Topic      string
	DeliveryID string
}

// DeviceLister lists registered devices
type DeviceLister interface {
	ListAll(ctx context.Context) []device.Token
}

// Notifier fans an event out to devices
type Notifier interface {
	NotifyAll(ctx context.Context, endpoints []device.Token, event notification.Event) (*DispatchResult, error)
}

// OrderEventConfig configures new-order notifications
type OrderEventConfig struct {
	// Secret verifies X-WC-Webhook-Signature when set
	Secret string
	// DefaultCurrency is used when the order carries no currency code
	DefaultCurrency string
	// FallbackSymbol is used when the currency code is unknown
	FallbackSymbol string
	// DedupTTL is how long an order id is remembered after notifying
	DedupTTL time.Duration
	// DispatchTimeout bounds the fan-out once it is detached from the delivery. Zero means no bound.
	DispatchTimeout time.Duration
}

func (c *OrderEventConfig) applyDefaults() {
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "INR"
	}
	if c.FallbackSymbol == "" {
		c.FallbackSymbol = "₹"
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = shared.DefaultDedupTTL
	}
}

// OrderEventService turns order-created webhooks into device notifications
type OrderEventService struct {
	devices  DeviceLister
	notifier Notifier
	dedup    shared.IdempotencyStore
	config   OrderEventConfig
	logger   *zap.Logger
	metrics  Metrics
}

// NewOrderEventService creates the service. dedup may be nil to notify on every delivery.
func NewOrderEventService(
	devices DeviceLister,
	notifier Notifier,
	dedup shared.IdempotencyStore,
	config OrderEventConfig,
	log *zap.Logger,
	metrics Metrics,
) *OrderEventService {
	config.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &OrderEventService{
		devices:  devices,
		notifier: notifier,
		dedup:    dedup,
		config:   config,
		logger:   log,
		metrics:  metrics,
	}
}

// HandleOrderCreated processes one delivery. It never fails: local errors are
// logged and reported as OutcomeFailed so the store does not retry.
func (s *OrderEventService) HandleOrderCreated(ctx context.Context, d Delivery) (outcome Outcome) {
	ctx, span := telemetry.StartSpan(ctx, "webhook.OrderCreated",
		telemetry.WithAttribute(telemetry.SpanAttrDeliveryID, d.DeliveryID),
		telemetry.WithSpanKind(trace.SpanKindConsumer),
	)
	log := logger.L(ctx, s.logger).With(zap.String("delivery_id", d.DeliveryID), zap.String("topic", d.Topic))
	defer func() {
		telemetry.SetAttribute(span, telemetry.SpanAttrOutcome, string(outcome))
		span.End()
		s.metrics.RecordWebhook(ctx, outcome)
	}()

	if s.config.Secret != "" && !VerifySignature(d.Body, d.Signature, s.config.Secret) {
		log.Warn("webhook signature mismatch")
		return OutcomeRejected
	}

	var order commerce.Order
	if err := json.Unmarshal(d.Body, &order); err != nil || !order.HasID() {
		log.Debug("webhook without order id ignored")
		return OutcomeIgnored
	}
	log = log.With(zap.String("order_id", order.ID))
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, order.ID)
	log.Info("order received", zap.String("total", order.Total), zap.String("currency", order.Currency))

	if s.dedup != nil {
		first, err := s.dedup.MarkProcessed(ctx, "order-created:"+order.ID, s.config.DedupTTL)
		if err != nil {
			log.Warn("webhook dedup unavailable, notifying anyway", zap.Error(err))
		} else if !first {
			log.Info("duplicate order webhook skipped")
			return OutcomeDuplicate
		}
	}

	// The sender may drop the connection mid fan-out; the dedup key is already taken.
	sendCtx := context.WithoutCancel(ctx)
	if s.config.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, s.config.DispatchTimeout)
		defer cancel()
	}

	result, err := s.notifier.NotifyAll(sendCtx, s.devices.ListAll(sendCtx), s.NewOrderEvent(&order))
	if err != nil {
		log.Error("order notification failed", zap.Error(err))
		telemetry.RecordError(span, err)
		return OutcomeFailed
	}

	log.Info("order notification sent",
		zap.Int("messages", result.Messages),
		zap.Int("batches", result.Batches),
		zap.Int("failed_batches", result.FailedBatches),
		zap.Int("skipped", result.Skipped),
	)
	return OutcomeDispatched
}

// NewOrderEvent builds the announcement for a new order
func (s *OrderEventService) NewOrderEvent(order *commerce.Order) notification.Event {
	var orderID any = order.ID
	if n, err := strconv.ParseInt(order.ID, 10, 64); err == nil {
		orderID = n
	}
	return notification.Event{
		Title: fmt.Sprintf("🛒 New Order #%s", order.ID),
		Body:  fmt.Sprintf("Amount %s%s from %s", s.currencySymbol(order.Currency), order.Total, order.Billing.FirstName),
		Data:  map[string]any{"orderId": orderID},
	}
}

func (s *OrderEventService) currencySymbol(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		code = s.config.DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return s.config.FallbackSymbol
	}
	return fmt.Sprint(currency.NarrowSymbol(unit))
}

// VerifySignature checks a base64 HMAC-SHA256 of body against signature
func VerifySignature(body []byte, signature, secret string) bool {
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
