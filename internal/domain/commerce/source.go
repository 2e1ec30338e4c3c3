package commerce

import (
	"context"
	"encoding/json"
)

// Page size bounds accepted by the store's REST API.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// StatusAny selects orders regardless of status.
const StatusAny = "any"

// OrderQuery selects a page of orders.
type OrderQuery struct {
	Page     int
	PageSize int
	Status   string
}

// Normalize clamps the query into the range the store accepts.
func (q *OrderQuery) Normalize() {
	q.Page, q.PageSize = normalizePaging(q.Page, q.PageSize)
}

// ProductQuery selects a page of products.
type ProductQuery struct {
	Page     int
	PageSize int
}

// Normalize clamps the query into the range the store accepts.
func (q *ProductQuery) Normalize() {
	q.Page, q.PageSize = normalizePaging(q.Page, q.PageSize)
}

func normalizePaging(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// OrderPage is one page of orders plus the store's paging headers.
type OrderPage struct {
	Orders     []Order
	Page       int
	Total      int
	TotalPages int
}

// HasMore reports whether pages after this one exist.
func (p *OrderPage) HasMore() bool {
	return p.Page < p.TotalPages
}

// ProductPage is one page of products.
type ProductPage struct {
	Products   []Product
	Page       int
	Total      int
	TotalPages int
}

// OrderSource reads and updates order and product data in the store.
type OrderSource interface {
	ListOrders(ctx context.Context, query OrderQuery) (*OrderPage, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	UpdateOrder(ctx context.Context, id string, patch json.RawMessage) (*Order, error)
	ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
}
