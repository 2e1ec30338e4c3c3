package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	customerapp "github.com/shopnotify/backend/internal/application/customer"
	deviceapp "github.com/shopnotify/backend/internal/application/device"
	notificationapp "github.com/shopnotify/backend/internal/application/notification"
	"github.com/shopnotify/backend/internal/infrastructure/cache"
	"github.com/shopnotify/backend/internal/infrastructure/config"
	"github.com/shopnotify/backend/internal/infrastructure/expo"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
	"github.com/shopnotify/backend/internal/infrastructure/tokenstore"
	"github.com/shopnotify/backend/internal/infrastructure/woocommerce"
	"github.com/shopnotify/backend/internal/interfaces/http/handler"
	"github.com/shopnotify/backend/internal/interfaces/http/middleware"
	"github.com/shopnotify/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Log.Level
	logConfig.Format = cfg.Log.Format
	logConfig.Output = cfg.Log.Output
	logConfig.Rotation = logger.RotationConfig{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
	log, baseCore := logger.New(logConfig)
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if lp.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(serviceName, lp, logger.ParseLevel(cfg.Log.Level))
		log = telemetry.NewBridgedLogger(baseCore, otelCore, logger.Options()...)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Warn("Profiler disabled", zap.Error(err))
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting shopnotify",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

	// Redis is opened on first use and shared by the registry and dedup stores
	connectRedis, closeRedis := sharedRedis(cfg.Redis)

	// WooCommerce
	shop, err := woocommerce.NewClient(&woocommerce.Config{
		BaseURL:         cfg.WooCommerce.URL,
		ConsumerKey:     cfg.WooCommerce.ConsumerKey,
		ConsumerSecret:  cfg.WooCommerce.ConsumerSecret,
		QueryStringAuth: cfg.WooCommerce.QueryStringAuth,
		Timeout:         cfg.WooCommerce.Timeout,
	}, woocommerce.WithLogger(log.Named("woocommerce")))
	if err != nil {
		log.Fatal("Failed to configure WooCommerce client", zap.Error(err))
	}

	// Push provider
	provider, err := expo.NewProvider(&expo.Config{
		BaseURL:      cfg.Expo.BaseURL,
		AccessToken:  cfg.Expo.AccessToken,
		MaxBatchSize: cfg.Expo.MaxBatchSize,
		Timeout:      cfg.Expo.Timeout,
	}, nil)
	if err != nil {
		log.Fatal("Failed to configure Expo provider", zap.Error(err))
	}

	// Device registry
	store, err := tokenstore.New(ctx, cfg.Registry, tokenstore.Deps{
		Redis:    connectRedis,
		Logger:   log,
		LogLevel: cfg.Log.Level,
	})
	if err != nil {
		log.Fatal("Failed to open device token store",
			zap.String("backend", cfg.Registry.Backend),
			zap.Error(err),
		)
	}
	registry := deviceapp.LoadRegistry(ctx, store, log)

	// Notifications
	var metrics notificationapp.Metrics = notificationapp.NopMetrics{}
	meter := mp.Meter(notificationapp.MeterName)
	if mp.IsEnabled() {
		otelMetrics, err := notificationapp.NewOTelMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create notification metrics", zap.Error(err))
		}
		metrics = otelMetrics
	}
	dispatcher := notificationapp.NewDispatcher(provider, log, notificationapp.WithDispatchMetrics(metrics))

	dedup, err := cache.NewIdempotencyStore(ctx, cfg.Idempotency, connectRedis, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	orderEvents := notificationapp.NewOrderEventService(registry, dispatcher, dedup, notificationapp.OrderEventConfig{
		Secret:          cfg.Webhook.Secret,
		DefaultCurrency: cfg.Notification.DefaultCurrency,
		FallbackSymbol:  cfg.Notification.FallbackSymbol,
		DedupTTL:        cfg.Idempotency.TTL,
		DispatchTimeout: cfg.Notification.DispatchTimeout,
	}, log, metrics)

	customers := customerapp.NewService(shop, customerapp.Config{
		PageSize:    cfg.Customers.PageSize,
		MaxPages:    cfg.Customers.MaxPages,
		Concurrency: cfg.Customers.Concurrency,
	}, log)

	// HTTP
	engineConfig := router.EngineConfig{
		Env:              cfg.App.Env,
		ServiceName:      serviceName,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		CORS:             router.CORSFromLists(cfg.HTTP.CORSAllowOrigins, cfg.HTTP.CORSAllowMethods, cfg.HTTP.CORSAllowHeaders),
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TracingEnabled:   tp.IsEnabled(),
		ProfilingEnabled: profiler != nil && profiler.IsEnabled(),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.HTTP.RateLimitRPS,
			Burst:             cfg.HTTP.RateLimitBurst,
			SkipPaths:         []string{"/health", "/system/ping", "/order-created"},
		},
	}
	if mp.IsEnabled() {
		engineConfig.Meter = mp.Meter("github.com/shopnotify/backend/http")
	}
	engine, err := router.NewEngine(engineConfig, log)
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	router.NewRouter(engine).Register(
		handler.NewCommerceHandler(shop, handler.CommerceConfig{
			OrdersPageSize:   cfg.WooCommerce.OrdersPageSize,
			ProductsPageSize: cfg.WooCommerce.ProductsPageSize,
		}),
		handler.NewCustomerHandler(customers),
		handler.NewDeviceHandler(registry, dispatcher),
		handler.NewWebhookHandler(orderEvents),
		handler.NewSystemHandler(handler.SystemInfo{
			Name:            cfg.App.Name,
			Version:         telemetry.ServiceVersion,
			Env:             cfg.App.Env,
			RegistryBackend: cfg.Registry.Backend,
		}, registry),
	).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if dedup != nil {
		if err := dedup.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing device token store", zap.Error(err))
	}
	if err := closeRedis(); err != nil {
		log.Error("Error closing redis", zap.Error(err))
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// sharedRedis returns a connector that dials Redis once and a func closing
// the client if it was opened
func sharedRedis(cfg config.RedisConfig) (cache.RedisConnector, func() error) {
	var (
		once   sync.Once
		client *redis.Client
		err    error
	)
	connect := func(ctx context.Context) (*redis.Client, error) {
		once.Do(func() {
			client, err = cache.NewRedisClient(ctx, cfg)
		})
		return client, err
	}
	closeFn := func() error {
		if client == nil {
			return nil
		}
		return client.Close()
	}
	return connect, closeFn
}
