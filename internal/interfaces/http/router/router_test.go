package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	deviceapp "github.com/shopnotify/backend/internal/application/device"
	notificationapp "github.com/shopnotify/backend/internal/application/notification"
	"github.com/shopnotify/backend/internal/domain/commerce"
	"github.com/shopnotify/backend/internal/domain/customer"
	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/domain/notification"
	"github.com/shopnotify/backend/internal/interfaces/http/handler"
	"github.com/shopnotify/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSource struct{}

func (stubSource) ListOrders(context.Context, commerce.OrderQuery) (*commerce.OrderPage, error) {
	return &commerce.OrderPage{Orders: []commerce.Order{{ID: "1", Total: "5.00"}}, Page: 1, TotalPages: 1}, nil
}

func (stubSource) GetOrder(_ context.Context, id string) (*commerce.Order, error) {
	return &commerce.Order{ID: id}, nil
}

func (stubSource) UpdateOrder(_ context.Context, id string, _ json.RawMessage) (*commerce.Order, error) {
	return &commerce.Order{ID: id, Status: "completed"}, nil
}

func (stubSource) ListProducts(context.Context, commerce.ProductQuery) (*commerce.ProductPage, error) {
	return &commerce.ProductPage{Products: []commerce.Product{{ID: "9", Name: "Mug"}}}, nil
}

type stubCustomers struct {
	lastID string
}

func (s *stubCustomers) ListProfiles(context.Context) ([]customer.Profile, error) {
	return []customer.Profile{{IdentityKey: "a@b.com", Email: "a@b.com", TotalOrders: 1}}, nil
}

func (s *stubCustomers) OrdersFor(_ context.Context, id string) ([]commerce.Order, error) {
	s.lastID = id
	return nil, nil
}

type stubRegistry struct {
	tokens []device.Token
}

func (s *stubRegistry) Register(_ context.Context, t device.Token) (deviceapp.RegisterResult, error) {
	s.tokens = append(s.tokens, t)
	return deviceapp.RegisterResult{Inserted: true}, nil
}

func (s *stubRegistry) ListAll(context.Context) []device.Token { return s.tokens }

func (s *stubRegistry) Count() int { return len(s.tokens) }

type stubNotifier struct{}

func (stubNotifier) NotifyAll(_ context.Context, endpoints []device.Token, _ notification.Event) (*notificationapp.DispatchResult, error) {
	return &notificationapp.DispatchResult{Messages: len(endpoints), Batches: 1}, nil
}

type stubEvents struct{}

func (stubEvents) HandleOrderCreated(context.Context, notificationapp.Delivery) notificationapp.Outcome {
	return notificationapp.OutcomeIgnored
}

func newTestEngine(t *testing.T, log *zap.Logger) (*gin.Engine, *stubCustomers) {
	t.Helper()

	engine, err := NewEngine(EngineConfig{
		Env:         "test",
		ServiceName: "shopnotify",
		CORS:        CORSFromLists(nil, nil, nil),
		MaxBodySize: 1 << 10,
	}, log)
	require.NoError(t, err)

	customers := &stubCustomers{}
	registry := &stubRegistry{}
	NewRouter(engine).Register(
		handler.NewCommerceHandler(stubSource{}, handler.CommerceConfig{}),
		handler.NewCustomerHandler(customers),
		handler.NewDeviceHandler(registry, stubNotifier{}),
		handler.NewWebhookHandler(stubEvents{}),
		handler.NewSystemHandler(handler.SystemInfo{Name: "shopnotify"}, registry),
	).Setup()
	return engine, customers
}

func TestRoutes(t *testing.T) {
	engine, _ := newTestEngine(t, zap.NewNop())

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/orders", "", http.StatusOK},
		{http.MethodGet, "/orders/1", "", http.StatusOK},
		{http.MethodPut, "/orders/1", `{"status":"completed"}`, http.StatusOK},
		{http.MethodGet, "/products", "", http.StatusOK},
		{http.MethodGet, "/customers", "", http.StatusOK},
		{http.MethodGet, "/customers/orders/a%40b.com", "", http.StatusOK},
		{http.MethodPost, "/save-token", `{"expoPushToken":"ExponentPushToken[x]"}`, http.StatusOK},
		{http.MethodGet, "/test-notification", "", http.StatusOK},
		{http.MethodPost, "/order-created", `{}`, http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/system/info", "", http.StatusOK},
		{http.MethodGet, "/system/ping", "", http.StatusOK},
		{http.MethodGet, "/api/v1/orders", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRoutes_EncodedCustomerID(t *testing.T) {
	engine, customers := newTestEngine(t, zap.NewNop())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/orders/a%2Fb%40example.com", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a/b@example.com", customers.lastID)
}

func TestRoutes_BodyLimit(t *testing.T) {
	engine, _ := newTestEngine(t, zap.NewNop())

	body := `{"expoPushToken":"` + strings.Repeat("x", 2<<10) + `"}`
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save-token", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRoutes_AccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	engine, _ := newTestEngine(t, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestRouter_WithPrefix(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithPrefix("/api")).
		Register(handler.NewSystemHandler(handler.SystemInfo{}, &stubRegistry{})).
		Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	_, err := NewEngine(EngineConfig{TrustedProxies: []string{"not-an-ip"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestCORSFromLists(t *testing.T) {
	cors := CORSFromLists([]string{"https://admin.example.com"}, nil, nil)
	assert.Equal(t, []string{"https://admin.example.com"}, cors.AllowOrigins)
	assert.Equal(t, middleware.DefaultCORSConfig().AllowMethods, cors.AllowMethods)

	assert.Equal(t, []string{"*"}, CORSFromLists(nil, nil, nil).AllowOrigins)
}
