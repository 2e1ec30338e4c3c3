package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	deviceapp "github.com/shopnotify/backend/internal/application/device"
	notificationapp "github.com/shopnotify/backend/internal/application/notification"
	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/domain/customer"
	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/domain/notification"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestContext builds a gin context for a direct handler call
func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	return c, w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

// MockOrderSource implements commerce.OrderSource for testing
type MockOrderSource struct {
	mock.Mock
}

func (m *MockOrderSource) ListOrders(ctx context.Context, query commerce.OrderQuery) (*commerce.OrderPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.OrderPage), args.Error(1)
}

func (m *MockOrderSource) GetOrder(ctx context.Context, id string) (*commerce.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderSource) UpdateOrder(ctx context.Context, id string, patch json.RawMessage) (*commerce.Order, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderSource) ListProducts(ctx context.Context, query commerce.ProductQuery) (*commerce.ProductPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.ProductPage), args.Error(1)
}

// MockCustomerService implements CustomerService for testing
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) ListProfiles(ctx context.Context) ([]customer.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Profile), args.Error(1)
}

func (m *MockCustomerService) OrdersFor(ctx context.Context, id string) ([]commerce.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.Order), args.Error(1)
}

// MockDeviceRegistry implements DeviceRegistry for testing
type MockDeviceRegistry struct {
	mock.Mock
}

func (m *MockDeviceRegistry) Register(ctx context.Context, token device.Token) (deviceapp.RegisterResult, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(deviceapp.RegisterResult), args.Error(1)
}

func (m *MockDeviceRegistry) ListAll(ctx context.Context) []device.Token {
	args := m.Called(ctx)
	return args.Get(0).([]device.Token)
}

// MockNotifier implements notificationapp.Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAll(ctx context.Context, endpoints []device.Token, event notification.Event) (*notificationapp.DispatchResult, error) {
	args := m.Called(ctx, endpoints, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notificationapp.DispatchResult), args.Error(1)
}

// MockOrderEvents implements OrderEvents for testing
type MockOrderEvents struct {
	mock.Mock
}

func (m *MockOrderEvents) HandleOrderCreated(ctx context.Context, d notificationapp.Delivery) notificationapp.Outcome {
	args := m.Called(ctx, d)
	return args.Get(0).(notificationapp.Outcome)
}

// fixedCounter implements DeviceCounter
type fixedCounter int

func (f fixedCounter) Count() int { return int(f) }
