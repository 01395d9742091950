package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	connectorapp "github.com/b2bhub/backend/internal/application/connector"
	"github.com/b2bhub/backend/internal/infrastructure/cache"
	"github.com/b2bhub/backend/internal/infrastructure/config"
	"github.com/b2bhub/backend/internal/infrastructure/connectors/dynamics"
	"github.com/b2bhub/backend/internal/infrastructure/connectors/sap"
	"github.com/b2bhub/backend/internal/infrastructure/logger"
	"github.com/b2bhub/backend/internal/infrastructure/persistence"
	"github.com/b2bhub/backend/internal/infrastructure/resilience"
	"github.com/b2bhub/backend/internal/infrastructure/token"
	"github.com/b2bhub/backend/internal/infrastructure/vault"
	"github.com/b2bhub/backend/internal/interfaces/http/handler"
	"github.com/b2bhub/backend/internal/interfaces/http/middleware"
	"github.com/b2bhub/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Connector Hub",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	connectorRepo := persistence.NewGormConnectorRepository(db.DB)
	configRepo := persistence.NewGormConfigurationRepository(db.DB)
	vaultRepo := persistence.NewGormVaultRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)

	// Webhook dedupe store: Redis when enabled, in-memory otherwise
	var dedupeStore cache.DedupeStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisDedupeStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		dedupeStore = redisStore
		log.Info("Redis dedupe store connected",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		dedupeStore = cache.NewInMemoryDedupeStore()
		log.Info("Using in-memory dedupe store")
	}

	// Credential cipher. The master secret comes from the environment in
	// production; Load rejects production configs without one.
	cipher, err := vault.NewCipher(cfg.Vault.MasterSecret)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	// Built-in connector plugins share one OAuth token cache
	tokens := token.NewCache(cfg.Resilience.TokenExpirySkew)
	plugins := connectorapp.NewPluginRegistry()
	if err := plugins.Add(sap.New(tokens)); err != nil {
		log.Fatal("Failed to register SAP connector", zap.Error(err))
	}
	if err := plugins.Add(dynamics.New(tokens)); err != nil {
		log.Fatal("Failed to register Dynamics connector", zap.Error(err))
	}

	// Resilience: per-configuration circuit breakers and retry policy
	breakers := resilience.NewBreakerRegistry(resilience.BreakerSettings{
		OpenTimeout: cfg.Resilience.BreakerOpenTimeout,
		OnStateChange: func(configID uuid.UUID, from, to resilience.BreakerState) {
			log.Warn("Circuit breaker state changed",
				zap.String("config_id", configID.String()),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	retry := resilience.RetryPolicy{
		MaxAttempts:    cfg.Resilience.RetryMaxAttempts,
		BaseDelay:      cfg.Resilience.RetryBaseDelay,
		MaxDelay:       cfg.Resilience.RetryMaxDelay,
		JitterFraction: resilience.DefaultJitterFraction,
	}

	// Initialize application services
	registryService := connectorapp.NewRegistryService(connectorRepo, configRepo, vaultRepo, eventRepo, plugins, log)
	vaultService := connectorapp.NewVaultService(vaultRepo, configRepo, eventRepo, cipher, log)
	executorService := connectorapp.NewExecutorService(connectorRepo, configRepo, eventRepo, plugins, vaultService, breakers, retry, log)
	webhookService := connectorapp.NewWebhookService(connectorRepo, configRepo, eventRepo, plugins, dedupeStore, log)
	webhookService.SetDedupeTTL(cfg.Webhook.DedupeTTL)

	// Register built-in connectors in the catalog. Idempotent across restarts.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	for _, plugin := range plugins.All() {
		conn, err := registryService.EnsureRegistered(startupCtx, plugin)
		if err != nil {
			cancelStartup()
			log.Fatal("Failed to register built-in connector",
				zap.String("code", plugin.Metadata().Code),
				zap.Error(err),
			)
		}
		log.Info("Connector registered",
			zap.String("code", conn.Code),
			zap.Int("capabilities", len(conn.Capabilities)),
		)
	}
	cancelStartup()

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler(db)
	connectorHandler := handler.NewConnectorHandler(registryService)
	configurationHandler := handler.NewConfigurationHandler(registryService, executorService, vaultService)
	vaultHandler := handler.NewVaultHandler(vaultService)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Validation error messages use JSON field names
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, body limit, tenant resolution.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.TenantMiddleware())

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(connectorHandler).
		Register(configurationHandler).
		Register(vaultHandler).
		Register(webhookHandler)
	r.Setup()

	// Create HTTP server with config
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
