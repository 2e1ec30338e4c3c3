package handler

import (
	"context"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/domain/customer"
	"github.com/shopnotify/backend/internal/interfaces/http/dto"
)

// CustomerService derives customers from the order stream
type CustomerService interface {
	ListProfiles(ctx context.Context) ([]customer.Profile, error)
	OrdersFor(ctx context.Context, id string) ([]commerce.Order, error)
}

// CustomerHandler serves the aggregated customer views
type CustomerHandler struct {
	BaseHandler
	service CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// List handles GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	profiles, err := h.service.ListProfiles(c.Request.Context())
	if err != nil {
		h.HandleError(c, err, "Failed to fetch customers")
		return
	}
	h.Success(c, dto.ToCustomerResponses(profiles))
}

// Orders handles GET /customers/orders/:id where id is a phone number or an
// email address, URL-encoded by the client.
func (h *CustomerHandler) Orders(c *gin.Context) {
	id, err := url.PathUnescape(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer id")
		return
	}

	orders, err := h.service.OrdersFor(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err, "Failed to fetch customer orders")
		return
	}
	h.Success(c, nonNil(orders))
}

// RegisterRoutes implements router.RouteRegistrar
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/customers", h.List)
	rg.GET("/customers/orders/:id", h.Orders)
}
