// Package handler implements the HTTP endpoints the mobile client and the
// store's webhooks call.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/domain/shared"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/interfaces/http/dto"
)

// maxLoggedBody bounds upstream bodies copied into logs
const maxLoggedBody = 2048

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response with data as the whole body
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Fail sends an error response
func (h *BaseHandler) Fail(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Fail(c, http.StatusBadRequest, message)
}

// HandleError logs err with the request logger and answers it.
// Domain errors keep their message and mapped status. Anything else becomes
// a 500 carrying the generic message; upstream detail never reaches clients.
func (h *BaseHandler) HandleError(c *gin.Context, err error, message string) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Fail(c, dto.GetHTTPStatus(code), domainErr.Message)
		return
	}

	fields := []zap.Field{zap.Error(err)}
	var upstream *commerce.UpstreamError
	if errors.As(err, &upstream) {
		body := upstream.Body
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody]
		}
		fields = append(fields,
			zap.Int("upstream_status", upstream.StatusCode),
			zap.ByteString("upstream_body", body),
		)
	}
	logger.GetGinLogger(c).Error(message, fields...)
	h.Fail(c, http.StatusInternalServerError, message)
}

// readBody reads the raw request body. It answers the request itself and
// returns false when the body cannot be read.
func (h *BaseHandler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err == nil {
		return body, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Fail(c, http.StatusRequestEntityTooLarge, "Request body exceeds maximum allowed size")
		return nil, false
	}
	h.BadRequest(c, "Invalid request body")
	return nil, false
}
