package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/adapter/cache"
	"github.com/seu-repo/loja-checkout/internal/adapter/external/payment"
	"github.com/seu-repo/loja-checkout/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/loja-checkout/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/loja-checkout/internal/adapter/queue"
	"github.com/seu-repo/loja-checkout/internal/adapter/storage/memory"
	"github.com/seu-repo/loja-checkout/internal/adapter/storage/postgres"
	"github.com/seu-repo/loja-checkout/internal/ports"
	"github.com/seu-repo/loja-checkout/internal/service/auth"
	paymentsvc "github.com/seu-repo/loja-checkout/internal/service/payment"
	"github.com/seu-repo/loja-checkout/pkg/config"
)

const (
	serviceName    = "loja-checkout-backend"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting payment backend",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Payment.Stripe.SecretKey == "" {
		logger.Fatal("Stripe secret key is not configured (STRIPE_SECRET_KEY)")
	}
	if cfg.Payment.Stripe.PublishableKey == "" {
		logger.Fatal("Stripe publishable key is not configured (STRIPE_PUBLISHABLE_KEY)")
	}

	// 3. Intent store: PostgreSQL when configured, in-memory otherwise
	var intentRepo ports.IntentRepository
	var dbPing func() error
	if cfg.Database.URL != "" {
		db, err := postgres.NewConnection(cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
		}
		defer postgres.Close(db)
		dbPing = sqlDB.Ping

		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		intentRepo = postgres.NewIntentRepository(db, logger)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory intent store")
		intentRepo = memory.NewIntentStore()
	}

	// 4. Cache: Redis when configured, local fallback otherwise
	var cacheStore ports.Cache
	if cfg.Redis.URL != "" {
		cacheStore, err = cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	} else {
		logger.Warn("REDIS_URL not set, using local in-process cache")
		cacheStore = cache.NewLocalCache(time.Minute, logger)
	}
	defer cacheStore.Close()

	// 5. Message Queue (NATS, optional)
	var messageQueue ports.MessageQueue
	if cfg.NATS.URL != "" {
		messageQueue, err = queue.NewNATSQueue(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer messageQueue.Close()
	} else {
		logger.Warn("NATS_URL not set, payment events will not be published")
	}

	// 6. Processor Gateway
	gateway := payment.NewStripeGateway(cfg.Payment.Stripe.SecretKey, logger)

	// 7. Services (Business Logic Layer)
	authService := auth.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, logger)
	paymentService := paymentsvc.NewService(&paymentsvc.Config{
		PublishableKey:  cfg.Payment.Stripe.PublishableKey,
		DefaultCurrency: cfg.Payment.DefaultCurrency,
		IdempotencyTTL:  cfg.Payment.IdempotencyTTL,
	}, gateway, intentRepo, cacheStore, messageQueue, logger)

	// 8. Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.HTTP.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Health Check Endpoints
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if dbPing != nil {
			if err := dbPing(); err != nil {
				return c.Status(503).SendString("Database not ready")
			}
		}
		if err := cacheStore.Ping(); err != nil {
			return c.Status(503).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})

	// Metrics endpoint for Prometheus
	app.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	// Payment routes
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	pay := app.Group("/payment")
	pay.Get("/config", paymentHandler.GetConfig)

	protected := pay.Group("", middleware.AuthRequired(authService))
	protected.Post("/create-intent", paymentHandler.CreateIntent)
	protected.Post("/confirm", paymentHandler.Confirm)
	protected.Get("/history", paymentHandler.GetHistory)

	// 9. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
