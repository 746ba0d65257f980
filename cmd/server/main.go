// Package main is the entry point for the commissionflow API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commissionflow/internal/core/tx"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/internal/domain/orders/sale_order"
	"commissionflow/internal/domain/settlement"
	v1 "commissionflow/internal/infrastructure/http/v1"
	"commissionflow/internal/infrastructure/http/v1/handlers"
	"commissionflow/internal/infrastructure/storage/memory"
	"commissionflow/internal/infrastructure/storage/postgres"
	"commissionflow/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting commissionflow server")

	// --- Storage backend ---
	backend := getEnv("STORAGE_BACKEND", "memory")

	var (
		poRepo       purchase_order.Repository
		soRepo       sale_order.Repository
		fallbackRepo settlement.FallbackRepository
		txManager    tx.Manager
		pinger       handlers.Pinger
	)

	switch backend {
	case "memory":
		store := memory.NewStore()
		poRepo = store.PurchaseOrders()
		soRepo = store.SaleOrders()
		fallbackRepo = store.Fallbacks()
		txManager = store.TxManager()
		log.Info("using in-memory storage")

	case "postgres":
		dsn := mustEnv("DATABASE_URL")
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()

		pgTxManager := postgres.NewTxManager(pool)
		poRepo = postgres.NewPurchaseOrderRepo(pgTxManager)
		soRepo = postgres.NewSaleOrderRepo(pgTxManager)
		fallbackRepo = postgres.NewFallbackRepo(pgTxManager)
		txManager = pgTxManager
		pinger = pool
		log.Info("database connection established")

	default:
		log.Fatalw("unknown storage backend", "backend", backend)
	}

	// --- Services ---
	calc := settlement.NewCalculator()
	if pct := getEnv("COMMISSION_PERCENT", ""); pct != "" {
		percent, err := types.NewMoneyFromString(pct)
		if err != nil {
			log.Fatalw("invalid COMMISSION_PERCENT", "value", pct, "error", err)
		}
		calc = settlement.NewCalculatorWithCommission(percent)
	}

	resolver := settlement.NewCoverageResolver(soRepo, fallbackRepo)
	engine := settlement.NewEngine(poRepo, resolver, calc, txManager)
	fallbacks := settlement.NewFallbackRegistry(poRepo, resolver, fallbackRepo, txManager)
	poService := purchase_order.NewService(poRepo, txManager)
	soService := sale_order.NewService(soRepo, poRepo, fallbackRepo, txManager)

	log.Infow("settlement engine initialized", "commission_percent", calc.CommissionPercent())

	// --- Demo data ---
	if getEnv("DEMO_DATA", "false") == "true" {
		if err := seedDemoData(ctx, poService); err != nil {
			log.Warnw("failed to seed demo data", "error", err)
		} else {
			log.Info("demo data seeded")
		}
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		PurchaseOrders: poService,
		SaleOrders:     soService,
		Engine:         engine,
		Fallbacks:      fallbacks,
		Storage:        pinger,
		StorageBackend: backend,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port, "backend", backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// seedDemoData creates a sample purchase order for local exploration.
func seedDemoData(ctx context.Context, poService *purchase_order.Service) error {
	po := purchase_order.NewPurchaseOrder("vendor-demo", []purchase_order.POItem{
		{
			SKUID:         "SKU-001",
			SKUName:       "Pomo Bhuj SSSS",
			POQty:         500,
			LabourCost:    types.NewMoneyFromInt(50),
			TransportCost: types.NewMoneyFromInt(30),
		},
		{
			SKUID:         "SKU-002",
			SKUName:       "Pomo Bhuj SSS",
			POQty:         300,
			LabourCost:    types.NewMoneyFromInt(50),
			TransportCost: types.NewMoneyFromInt(30),
		},
		{
			SKUID:         "SKU-003",
			SKUName:       "Basmati Rice 25kg",
			POQty:         100,
			LabourCost:    types.NewMoneyFromInt(40),
			TransportCost: types.NewMoneyFromInt(25),
		},
	})
	return poService.Create(ctx, po)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
