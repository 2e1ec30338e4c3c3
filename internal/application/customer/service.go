// Package customer serves customer profiles derived from the store's orders.
package customer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/domain/customer"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
)

// Defaults for the order scan behind customer queries
const (
	DefaultPageSize    = 100
	DefaultMaxPages    = 1
	DefaultConcurrency = 4
)

// Config bounds how much of the order history a customer query reads
type Config struct {
	// PageSize is the number of orders requested per page
	PageSize int
	// MaxPages caps the pages read per query. 1 reads only the most recent page.
	MaxPages int
	// Concurrency limits parallel page fetches after the first page
	Concurrency int
}

func (c *Config) applyDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
}

// Service answers customer queries
type Service struct {
	source commerce.OrderSource
	config Config
	logger *zap.Logger
}

// NewService creates a customer service reading from source
func NewService(source commerce.OrderSource, config Config, log *zap.Logger) *Service {
	config.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{source: source, config: config, logger: log}
}

// ListProfiles returns one profile per customer found in the order scan
func (s *Service) ListProfiles(ctx context.Context) ([]customer.Profile, error) {
	ctx, span := telemetry.StartSpan(ctx, "customer.ListProfiles")
	defer span.End()

	orders, err := s.fetchOrders(ctx)
	if err != nil {
		return nil, err
	}
	profiles := customer.Aggregate(orders)
	telemetry.SetAttribute(span, telemetry.SpanAttrCustomerKeys, len(profiles))
	return profiles, nil
}

// OrdersFor returns the orders whose billing email or phone matches id, newest first
func (s *Service) OrdersFor(ctx context.Context, id string) ([]commerce.Order, error) {
	orders, err := s.fetchOrders(ctx)
	if err != nil {
		return nil, err
	}
	return customer.FindByIdentity(orders, id), nil
}

// fetchOrders reads the first page, then the remaining pages up to MaxPages
// concurrently. Pages are concatenated in page order.
func (s *Service) fetchOrders(ctx context.Context) (_ []commerce.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "customer.fetchOrders")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	first, err := s.source.ListOrders(ctx, s.query(1))
	if err != nil {
		return nil, fmt.Errorf("list orders page 1: %w", err)
	}

	last := min(first.TotalPages, s.config.MaxPages)
	telemetry.SetAttribute(span, telemetry.SpanAttrPages, max(last, 1))
	if last <= 1 {
		return first.Orders, nil
	}

	pages := make([][]commerce.Order, last+1)
	pages[1] = first.Orders

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for page := 2; page <= last; page++ {
		g.Go(func() error {
			result, err := s.source.ListOrders(gctx, s.query(page))
			if err != nil {
				return fmt.Errorf("list orders page %d: %w", page, err)
			}
			pages[page] = result.Orders
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if first.TotalPages > last {
		logger.L(ctx, s.logger).Debug("order scan truncated",
			zap.Int("pages_read", last),
			zap.Int("total_pages", first.TotalPages),
		)
	}

	orders := make([]commerce.Order, 0, len(first.Orders)*last)
	for _, p := range pages[1:] {
		orders = append(orders, p...)
	}
	return orders, nil
}

func (s *Service) query(page int) commerce.OrderQuery {
	return commerce.OrderQuery{Page: page, PageSize: s.config.PageSize, Status: commerce.StatusAny}
}
