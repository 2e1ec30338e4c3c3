package handler

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/interfaces/http/dto"
)

// CommerceConfig holds page sizes of the pass-through listings
type CommerceConfig struct {
	OrdersPageSize   int
	ProductsPageSize int
}

// CommerceHandler passes order and product requests through to the store.
// Upstream JSON is returned unchanged.
type CommerceHandler struct {
	BaseHandler
	source commerce.OrderSource
	config CommerceConfig
}

// NewCommerceHandler creates a new CommerceHandler
func NewCommerceHandler(source commerce.OrderSource, config CommerceConfig) *CommerceHandler {
	if config.OrdersPageSize <= 0 {
		config.OrdersPageSize = 50
	}
	if config.ProductsPageSize <= 0 {
		config.ProductsPageSize = 100
	}
	return &CommerceHandler{source: source, config: config}
}

// ListOrders handles GET /orders
func (h *CommerceHandler) ListOrders(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid page")
		return
	}

	page, err := h.source.ListOrders(c.Request.Context(), commerce.OrderQuery{
		Page:     q.Page,
		PageSize: h.config.OrdersPageSize,
	})
	if err != nil {
		h.HandleError(c, err, "Failed to fetch orders")
		return
	}

	setPagingHeaders(c, page.Total, page.TotalPages)
	h.Success(c, nonNil(page.Orders))
}

// GetOrder handles GET /orders/:id
func (h *CommerceHandler) GetOrder(c *gin.Context) {
	order, err := h.source.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err, "Failed to fetch order")
		return
	}
	h.Success(c, order)
}

// UpdateOrder handles PUT /orders/:id. The body is forwarded as the patch;
// an empty body is an empty patch.
func (h *CommerceHandler) UpdateOrder(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		h.BadRequest(c, "Invalid JSON body")
		return
	}

	order, err := h.source.UpdateOrder(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		h.HandleError(c, err, "Failed to update order")
		return
	}
	h.Success(c, order)
}

// ListProducts handles GET /products
func (h *CommerceHandler) ListProducts(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid page")
		return
	}

	page, err := h.source.ListProducts(c.Request.Context(), commerce.ProductQuery{
		Page:     q.Page,
		PageSize: h.config.ProductsPageSize,
	})
	if err != nil {
		h.HandleError(c, err, "Failed to fetch products")
		return
	}

	setPagingHeaders(c, page.Total, page.TotalPages)
	h.Success(c, nonNil(page.Products))
}

// RegisterRoutes implements router.RouteRegistrar
func (h *CommerceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders", h.ListOrders)
	rg.GET("/orders/:id", h.GetOrder)
	rg.PUT("/orders/:id", h.UpdateOrder)
	rg.GET("/products", h.ListProducts)
}

// setPagingHeaders mirrors the store's paging headers
func setPagingHeaders(c *gin.Context, total, totalPages int) {
	if total > 0 {
		c.Header("X-WP-Total", strconv.Itoa(total))
	}
	if totalPages > 0 {
		c.Header("X-WP-TotalPages", strconv.Itoa(totalPages))
	}
}

// nonNil keeps empty listings encoded as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
