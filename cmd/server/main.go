// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emandate/internal/codec"
	"emandate/internal/config"
	"emandate/internal/gateway"
	"emandate/internal/handlers"
	"emandate/internal/middleware"
	"emandate/internal/repositories"
	"emandate/internal/repositories/cache"
	"emandate/internal/routes"
	"emandate/internal/services/calculator"
	"emandate/internal/services/mandate"
	"emandate/internal/services/slab"
	"emandate/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "emandate").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if !cfg.IsProduction() {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repositories.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database instance")
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database connection")
		}
	}()

	// Slab reads fall back to the database when redis is down.
	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	var slabCache slab.Cache = slab.NoopCache{}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := cache.Ping(pingCtx, redisClient); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, slab cache disabled")
		redisClient = nil
	} else {
		slabCache = cache.NewSlabCache(redisClient, cfg.Redis.SlabTTL)
	}
	cancelPing()

	legacy, err := codec.NewLegacy(cfg.Legacy.Key, cfg.Legacy.IV)
	if err != nil {
		log.Fatal().Err(err).Msg("legacy codec")
	}
	authenticated, err := codec.NewAuthenticated(cfg.Authenticated.AESKey, cfg.Authenticated.HMACKey)
	if err != nil {
		log.Fatal().Err(err).Msg("authenticated codec")
	}
	codecs := codec.NewRegistry(legacy, authenticated)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := mandate.NewPrometheusMetrics(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("register metrics")
	}

	merchantRepo := repositories.NewMerchantRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	slabService := slab.NewService(repositories.NewSlabRepository(db), merchantRepo, slabCache, log)
	quoteService := calculator.NewQuoteService(slabService, time.Now)

	reconciler := mandate.NewReconciler(
		repositories.NewReconciliationTaskRepository(db),
		transactionRepo,
		mandate.ReconcilerConfig{MaxAttempts: cfg.Mandate.MaxReconcileAttempts},
		metrics,
		log,
	)

	mandateService := mandate.NewService(mandate.Dependencies{
		Codecs:       codecs,
		Gateway:      gateway.NewClient(cfg.Gateway, log),
		Merchants:    merchantRepo,
		Slabs:        slabService,
		Users:        repositories.NewUserRepository(db),
		Transactions: transactionRepo,
		Outbox:       reconciler,
		Metrics:      metrics,
	}, mandate.Config{
		ReturnURL:      cfg.Mandate.ReturnURL,
		WebhookBaseURL: cfg.Mandate.WebhookBaseURL,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		reconciler.Run(ctx)
	}()
	scheduler, err := reconciler.Schedule(ctx, cfg.Mandate.RelaySchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("reconciliation relay")
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return response.Error(c, fe.Code, "HTTP_ERROR", fe.Message)
			}
			return response.DomainError(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Mandate:       handlers.NewMandateHandler(mandateService),
		Calculation:   handlers.NewCalculationHandler(codecs, quoteService, metrics, log),
		Slab:          handlers.NewSlabHandler(slabService),
		Health:        handlers.NewHealthHandler(db, redisClient),
		Auth:          middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, log),
		Metrics:       registry,
		CalcRateLimit: cfg.Server.CalcRateLimit,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}

	stop()
	<-scheduler.Stop().Done()
	<-workerDone
	log.Info().Msg("shutdown complete")
}

