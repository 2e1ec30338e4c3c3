package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	notificationapp "github.com/shopnotify/backend/internal/application/notification"
	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
	"github.com/shopnotify/backend/internal/interfaces/http/dto"
)

// WooCommerce webhook headers
const (
	HeaderWebhookSignature  = "X-WC-Webhook-Signature"
	HeaderWebhookTopic      = "X-WC-Webhook-Topic"
	HeaderWebhookDeliveryID = "X-WC-Webhook-Delivery-ID"
)

// OrderEvents handles order-created deliveries
type OrderEvents interface {
	HandleOrderCreated(ctx context.Context, d notificationapp.Delivery) notificationapp.Outcome
}

// WebhookHandler receives the store's webhooks
type WebhookHandler struct {
	BaseHandler
	events OrderEvents
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(events OrderEvents) *WebhookHandler {
	return &WebhookHandler{events: events}
}

// OrderCreated handles POST /order-created. Every delivery is acknowledged
// with 200 so the store never retries or disables the webhook; only a
// completed fan-out answers with JSON.
func (h *WebhookHandler) OrderCreated(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		_ = c.Error(err)
	}

	delivery := notificationapp.Delivery{
		Body:       body,
		Signature:  c.GetHeader(HeaderWebhookSignature),
		Topic:      c.GetHeader(HeaderWebhookTopic),
		DeliveryID: c.GetHeader(HeaderWebhookDeliveryID),
	}
	if delivery.DeliveryID == "" {
		delivery.DeliveryID = uuid.NewString()
	}

	var outcome notificationapp.Outcome
	labels := map[string]string{"webhook_topic": delivery.Topic}
	telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
		outcome = h.events.HandleOrderCreated(ctx, delivery)
	})

	if outcome == notificationapp.OutcomeDispatched {
		c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
		return
	}
	c.String(http.StatusOK, "OK")
}

// RegisterRoutes implements router.RouteRegistrar
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/order-created", h.OrderCreated)
}
