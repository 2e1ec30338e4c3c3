// Package router assembles the gin engine and registers the endpoint groups.
package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	prefix     string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithPrefix mounts every route under prefix. The mobile client calls the
// routes at the root, which is the default.
func WithPrefix(prefix string) RouterOption {
	return func(r *Router) {
		r.prefix = prefix
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		registrars: make([]RouteRegistrar, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	group := r.engine.Group(r.prefix)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(group)
	}
}

// EngineConfig configures the middleware stack
type EngineConfig struct {
	Env            string
	ServiceName    string
	TrustedProxies []string
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TracingEnabled bool
	// Meter enables HTTP metrics when set
	Meter            metric.Meter
	ProfilingEnabled bool
	RateLimit        middleware.RateLimitConfig
}

// NewEngine creates a gin engine with the middleware stack applied in order:
//  1. RequestID - propagate or assign X-Request-ID
//  2. Recovery - turn panics into 500
//  3. Tracing - server span per request, request id and 5xx marking
//  4. Logger - request-scoped logger and access log
//  5. Metrics, Profiling - when enabled
//  6. Security headers, CORS, rate limit, body limit
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	// Customer ids are emails or phone numbers and may contain encoded
	// slashes; handlers unescape path values themselves.
	engine.UseRawPath = true
	engine.UnescapePathValues = false

	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
		SkipPaths:   middleware.DefaultTracingConfig().SkipPaths,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))

	if cfg.Meter != nil {
		metrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		engine.Use(metrics)
	}
	if cfg.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.RateLimit(cfg.RateLimit))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	return engine, nil
}

// CORSFromLists builds the CORS configuration from config lists. An empty
// origin list keeps the development default of any origin.
func CORSFromLists(origins, methods, headers []string) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(origins) > 0 {
		cors.AllowOrigins = origins
	}
	if len(methods) > 0 {
		cors.AllowMethods = methods
	}
	if len(headers) > 0 {
		cors.AllowHeaders = headers
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}
