package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront-commerce-system/internal/adapters/gateway/paypal"
	httphandler "storefront-commerce-system/internal/adapters/http"
	"storefront-commerce-system/internal/adapters/messaging/kafka"
	"storefront-commerce-system/internal/adapters/provider"
	"storefront-commerce-system/internal/adapters/storage/postgres"
	"storefront-commerce-system/internal/adapters/storage/redis"
	"storefront-commerce-system/internal/app"
	"storefront-commerce-system/internal/commerce"
	"storefront-commerce-system/internal/config"
	"storefront-commerce-system/internal/observability"
)

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Application starting", "env", cfg.App.Env, "port", cfg.Server.Port)

	// --- 2. Observability ---
	shutdownTracer, err := observability.InitTracer(cfg.Jaeger.Port, "storefront-commerce")
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Failed to shutdown tracer", "error", err)
		}
	}()

	// --- 3. Dependencies ---
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Connected to PostgreSQL")

	// Redis
	redisClient, err := redis.NewClient(cfg.Redis.Addr)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis client", "error", err)
		}
	}()
	rateLimiterRepo := redis.NewRateLimiterAdapter(redisClient)

	// Kafka
	publisher, err := kafka.NewPublisher([]string{cfg.Kafka.BootstrapServers}, cfg.Kafka.Topic, logger)
	if err != nil {
		logger.Error("Failed to create Kafka publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()
	logger.Info("Kafka publisher created")

	// --- 4. Repositories and outbound clients ---
	offerRepo := postgres.NewOfferRepository(pool)
	catalogTTL := time.Duration(cfg.Catalog.CacheTTLSeconds) * time.Second
	if catalogTTL <= 0 {
		catalogTTL = 5 * time.Minute
	}
	cachedOffers := redis.NewCachedOfferRepository(offerRepo, redisClient, catalogTTL, logger)

	collab := commerce.Collaborators{
		Gateway:       paypal.NewGateway(cfg.Gateway.BaseURL, cfg.Gateway.ClientID, cfg.Gateway.ClientSecret),
		Provider:      provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey),
		Offers:        cachedOffers,
		Subscriptions: postgres.NewSubscriptionRepository(pool),
		Purchases:     postgres.NewPurchaseRepository(pool),
	}

	// --- 5. Service Layer ---
	commerceService := app.NewCommerceService(collab, publisher, logger)
	commerceHandler := httphandler.NewCommerceHandler(commerceService, logger)

	requestsPerMinute := cfg.RateLimit.RequestsPerMinute
	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}
	rateLimiterMiddleware := httphandler.NewRateLimiterMiddleware(rateLimiterRepo, requestsPerMinute, time.Minute, logger)

	// --- 6. HTTP Router ---
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		rateLimiterMiddleware.Handler,
		middleware.Logger,
		middleware.Recoverer,
		observability.NewLoggerMiddleware(logger),
		observability.NewMetricsMiddleware("storefront-commerce"),
		observability.NewTracingMiddleware("storefront-commerce"),
	)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "storefront-commerce",
		}); err != nil {
			logger.Error("Failed to write health response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/offers", commerceHandler.HandleListOffers)
		r.Post("/purchases", commerceHandler.HandlePurchase)
		r.Post("/subscriptions/{subscriptionID}/seats", commerceHandler.HandlePurchaseAdditionalSeats)
		r.Post("/subscriptions/{subscriptionID}/renew", commerceHandler.HandleRenewSubscription)
	})

	// --- 7. HTTP Server ---
	serverAddr := cfg.Server.Port
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited properly")
}
