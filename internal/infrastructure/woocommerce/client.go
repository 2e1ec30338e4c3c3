// Package woocommerce implements commerce.OrderSource against the
// WooCommerce REST API (v3).
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/shopnotify/backend/internal/domain/commerce"
)

// maxResponseSize is the maximum allowed response size from the store (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Paging headers set by the WordPress REST API
const (
	headerTotal      = "X-WP-Total"
	headerTotalPages = "X-WP-TotalPages"
)

// Client is a WooCommerce REST client
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default traced HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for upstream failures
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the configured store
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ commerce.OrderSource = (*Client)(nil)

// validateNumericID validates that a string is a positive integer ID
func validateNumericID(id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: %q", commerce.ErrInvalidID, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ListOrders fetches one page of orders
func (c *Client) ListOrders(ctx context.Context, query commerce.OrderQuery) (*commerce.OrderPage, error) {
	query.Normalize()

	params := pagingParams(query.Page, query.PageSize)
	if query.Status != "" {
		params.Set("status", query.Status)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "orders", params, nil)
	if err != nil {
		return nil, err
	}

	var orders []commerce.Order
	if err := json.Unmarshal(resp.body, &orders); err != nil {
		return nil, fmt.Errorf("%w: failed to parse orders: %v", commerce.ErrInvalidResponse, err)
	}
	if orders == nil {
		orders = []commerce.Order{}
	}

	total, totalPages := parsePaging(resp.header, query.Page, len(orders))
	return &commerce.OrderPage{
		Orders:     orders,
		Page:       query.Page,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// GetOrder fetches a single order
func (c *Client) GetOrder(ctx context.Context, id string) (*commerce.Order, error) {
	if err := validateNumericID(id); err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "orders/"+id, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeOrder(resp.body)
}

// UpdateOrder applies a partial update to an order and returns the stored result
func (c *Client) UpdateOrder(ctx context.Context, id string, patch json.RawMessage) (*commerce.Order, error) {
	if err := validateNumericID(id); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(patch)) == 0 {
		patch = json.RawMessage("{}")
	}

	resp, err := c.doRequest(ctx, http.MethodPut, "orders/"+id, nil, patch)
	if err != nil {
		return nil, err
	}
	return decodeOrder(resp.body)
}

func decodeOrder(body []byte) (*commerce.Order, error) {
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return nil, fmt.Errorf("%w: order body is not JSON", commerce.ErrInvalidResponse)
	}
	var order commerce.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%w: failed to parse order: %v", commerce.ErrInvalidResponse, err)
	}
	return &order, nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ListProducts fetches one page of products
func (c *Client) ListProducts(ctx context.Context, query commerce.ProductQuery) (*commerce.ProductPage, error) {
	query.Normalize()

	resp, err := c.doRequest(ctx, http.MethodGet, "products", pagingParams(query.Page, query.PageSize), nil)
	if err != nil {
		return nil, err
	}

	var products []commerce.Product
	if err := json.Unmarshal(resp.body, &products); err != nil {
		return nil, fmt.Errorf("%w: failed to parse products: %v", commerce.ErrInvalidResponse, err)
	}
	if products == nil {
		products = []commerce.Product{}
	}

	total, totalPages := parsePaging(resp.header, query.Page, len(products))
	return &commerce.ProductPage{
		Products:   products,
		Page:       query.Page,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

type response struct {
	body   []byte
	header http.Header
}

func pagingParams(page, perPage int) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	return params
}

// parsePaging reads the paging headers. Without them the current page is
// assumed to be the last one.
func parsePaging(h http.Header, page, count int) (total, totalPages int) {
	totalPages = page
	if v, err := strconv.Atoi(h.Get(headerTotalPages)); err == nil && v >= 0 {
		totalPages = v
	}
	total = count
	if v, err := strconv.Atoi(h.Get(headerTotal)); err == nil && v >= 0 {
		total = v
	}
	return total, totalPages
}

// doRequest sends an authenticated request to the store
func (c *Client) doRequest(ctx context.Context, method, resource string, params url.Values, body []byte) (*response, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.config.QueryStringAuth {
		params.Set("consumer_key", c.config.ConsumerKey)
		params.Set("consumer_secret", c.config.ConsumerSecret)
	}

	endpoint := c.config.endpoint(resource)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !c.config.QueryStringAuth {
		req.SetBasicAuth(c.config.ConsumerKey, c.config.ConsumerSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", commerce.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		upstreamErr := &commerce.UpstreamError{StatusCode: resp.StatusCode, Body: respBody}
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			upstreamErr.Code = apiErr.Code
			upstreamErr.Message = apiErr.Message
		}
		c.logger.Warn("woocommerce request failed",
			zap.String("method", method),
			zap.String("resource", resource),
			zap.Int("status", resp.StatusCode),
			zap.String("code", upstreamErr.Code),
		)
		return nil, upstreamErr
	}

	return &response{body: respBody, header: resp.Header}, nil
}
