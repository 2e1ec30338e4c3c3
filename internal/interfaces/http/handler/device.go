package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	deviceapp "github.com/shopnotify/backend/internal/application/device"
	notificationapp "github.com/shopnotify/backend/internal/application/notification"
	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/domain/notification"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/interfaces/http/dto"
)

// Fixed content of the diagnostic notification
const (
	testNotificationTitle = "Test Notification"
	testNotificationBody  = "Your WooCommerce app is working!"
)

// DeviceRegistry stores device registrations
type DeviceRegistry interface {
	Register(ctx context.Context, token device.Token) (deviceapp.RegisterResult, error)
	ListAll(ctx context.Context) []device.Token
}

// DeviceHandler registers devices and sends the diagnostic notification
type DeviceHandler struct {
	BaseHandler
	registry DeviceRegistry
	notifier notificationapp.Notifier
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(registry DeviceRegistry, notifier notificationapp.Notifier) *DeviceHandler {
	return &DeviceHandler{registry: registry, notifier: notifier}
}

// SaveToken handles POST /save-token
func (h *DeviceHandler) SaveToken(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		h.BadRequest(c, "No body received")
		return
	}

	var req dto.SaveTokenRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			h.BadRequest(c, device.ErrInvalidToken.Message)
			return
		}
		h.BadRequest(c, "No body received")
		return
	}

	result, err := h.registry.Register(c.Request.Context(), req.ToToken())
	if err != nil {
		h.HandleError(c, err, "Failed to save token")
		return
	}

	logger.GetGinLogger(c).Info("device token saved",
		zap.Bool("inserted", result.Inserted),
		zap.Bool("expo", req.ExpoPushToken != ""),
		zap.Bool("fcm", req.FCMToken != ""),
	)
	h.Success(c, dto.SaveTokenResponse{Success: true, Inserted: result.Inserted})
}

// TestNotification handles GET /test-notification. Local failures are
// reported with their message since the endpoint exists for diagnosis.
func (h *DeviceHandler) TestNotification(c *gin.Context) {
	ctx := c.Request.Context()
	result, err := h.notifier.NotifyAll(ctx, h.registry.ListAll(ctx), notification.Event{
		Title: testNotificationTitle,
		Body:  testNotificationBody,
	})
	if err != nil {
		_ = c.Error(err)
		logger.GetGinLogger(c).Error("test notification failed", zap.Error(err))
		h.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	h.Success(c, dto.TestNotificationResponse{
		Success:       true,
		Messages:      result.Messages,
		Batches:       result.Batches,
		FailedBatches: result.FailedBatches,
	})
}

// RegisterRoutes implements router.RouteRegistrar
func (h *DeviceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/save-token", h.SaveToken)
	rg.GET("/test-notification", h.TestNotification)
}
