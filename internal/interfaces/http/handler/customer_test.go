package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/domain/customer"
)

func TestCustomerHandler_List(t *testing.T) {
	svc := new(MockCustomerService)
	h := NewCustomerHandler(svc)

	svc.On("ListProfiles", mock.Anything).Return([]customer.Profile{{
		IdentityKey:   "9876543210",
		Name:          "Asha Rao",
		Phone:         "9876543210",
		City:          "Pune",
		TotalOrders:   2,
		TotalSpent:    decimal.RequireFromString("1200.505"),
		LastOrderDate: "2024-03-01T10:00:00",
	}}, nil)

	c, w := newTestContext(http.MethodGet, "/customers", nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"id": "9876543210",
		"name": "Asha Rao",
		"email": null,
		"phone": "9876543210",
		"city": "Pune",
		"state": "",
		"totalOrders": 2,
		"totalSpent": 1200.51,
		"lastOrderDate": "2024-03-01T10:00:00"
	}]`, w.Body.String())
}

func TestCustomerHandler_List_Error(t *testing.T) {
	svc := new(MockCustomerService)
	h := NewCustomerHandler(svc)
	svc.On("ListProfiles", mock.Anything).Return(nil, commerce.ErrUpstreamUnavailable)

	c, w := newTestContext(http.MethodGet, "/customers", nil)
	h.List(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch customers"}`, w.Body.String())
}

func TestCustomerHandler_Orders(t *testing.T) {
	t.Run("unescapes the id", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc)
		svc.On("OrdersFor", mock.Anything, "asha+rao@example.com").Return([]commerce.Order{{ID: "3", Total: "10.00"}}, nil)

		c, w := newTestContext(http.MethodGet, "/customers/orders/asha%2Brao%40example.com", nil)
		c.AddParam("id", "asha%2Brao%40example.com")
		h.Orders(c)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `"id":"3"`)
		svc.AssertExpectations(t)
	})

	t.Run("no match is an empty array", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc)
		svc.On("OrdersFor", mock.Anything, "nobody").Return(nil, nil)

		c, w := newTestContext(http.MethodGet, "/customers/orders/nobody", nil)
		c.AddParam("id", "nobody")
		h.Orders(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})

	t.Run("bad escape", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc)

		c, w := newTestContext(http.MethodGet, "/customers/orders/x", nil)
		c.AddParam("id", "%zz")
		h.Orders(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "OrdersFor", mock.Anything, mock.Anything)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc)
		svc.On("OrdersFor", mock.Anything, "a@b.com").Return(nil, errors.New("boom"))

		c, w := newTestContext(http.MethodGet, "/customers/orders/a@b.com", nil)
		c.AddParam("id", "a@b.com")
		h.Orders(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch customer orders"}`, w.Body.String())
	})
}
