package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ycliang/scriptly/internal"
	"github.com/ycliang/scriptly/internal/ai/mock"
	"github.com/ycliang/scriptly/internal/billing"
	"github.com/ycliang/scriptly/internal/handler"
	"github.com/ycliang/scriptly/internal/middleware"
	"github.com/ycliang/scriptly/internal/repository"
	"github.com/ycliang/scriptly/internal/service"
	"github.com/ycliang/scriptly/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Start the telemetry queue (fire-and-forget usage/cost persistence)
	queueCfg := worker.DefaultConfig()
	queueCfg.Workers = cfg.RecorderWorkers
	queueCfg.QueueSize = cfg.RecorderQueueSize
	queue, err := worker.NewQueue(queueCfg, logger)
	if err != nil {
		return fmt.Errorf("telemetry queue initialization failed: %w", err)
	}
	queue.Start()
	defer queue.Stop()

	// Guest events only feed a rolling daily count; prune rows past the
	// retention window once a day.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			queue.Enqueue(worker.Task{
				Name: "guest_prune",
				Run: func(ctx context.Context) error {
					pruned, err := repo.PruneGuestEventsBefore(ctx, time.Now().Add(-cfg.GuestEventRetention))
					if err != nil {
						return err
					}
					if pruned > 0 {
						logger.Info("Pruned guest usage events", "rows", pruned)
					}
					return nil
				},
			})
		}
	}()

	// Initialize the generation provider
	generator, err := mock.New(0)
	if err != nil {
		return fmt.Errorf("generator initialization failed: %w", err)
	}

	// Initialize services
	ledger := service.NewLedgerService(repo, logger)
	guests := service.NewGuestLimiterService(repo, cfg.GuestDailyLimit, logger)
	access := service.NewAccessService(ledger, guests, logger)
	recorder := service.NewRecorderService(repo, queue, cfg.ExchangeRateTWD, logger)
	reports := service.NewReportService(repo, logger)
	upgrades := service.NewUpgradeService(repo, logger)
	accounts := service.NewAccountService(repo, logger)

	// Stripe is optional; without keys the checkout endpoint is a stub
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			CreatorPriceID:  cfg.StripeCreatorPriceID,
			ProPriceID:      cfg.StripeProPriceID,
			LifetimePriceID: cfg.StripeLifetimePriceID,
		})
	}

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(repo, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsMw := middleware.NewMetricsMiddleware()
	adminAuth := middleware.NewBasicAuthMiddleware("admin", cfg.AdminUsername, cfg.AdminPassword)
	metricsAuth := middleware.NewBasicAuthMiddleware("metrics", cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	generateHandler := handler.NewGenerateHandler(access, recorder, generator, repo, cfg.AIModel, cfg.AIRequestTimeout, logger)
	adminHandler := handler.NewAdminHandler(reports, logger)
	billingHandler := handler.NewBillingHandler(billingService, upgrades, cfg.BaseURL, logger)
	accountHandler := handler.NewAccountHandler(accounts, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	generateHandler.RegisterRoutes(mux, authMw.WithIdentity)
	accountHandler.RegisterRoutes(mux, authMw.WithIdentity)
	billingHandler.RegisterRoutes(mux, authMw.WithIdentity)
	adminHandler.RegisterRoutes(mux, adminAuth.Handler)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: loggingMw.Handler(metricsMw.Handler(mux)),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
