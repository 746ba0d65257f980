// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/internal/domain/orders/sale_order"
	"commissionflow/internal/domain/settlement"
	"commissionflow/internal/infrastructure/http/v1/handlers"
	"commissionflow/internal/infrastructure/http/v1/middleware"
	"commissionflow/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// PurchaseOrders manages the purchase order lifecycle
	PurchaseOrders *purchase_order.Service

	// SaleOrders manages the sale order lifecycle
	SaleOrders *sale_order.Service

	// Engine generates settlements
	Engine *settlement.Engine

	// Fallbacks manages fallback price entries
	Fallbacks *settlement.FallbackRegistry

	// Storage is pinged by the readiness probe; nil for in-memory backend
	Storage handlers.Pinger

	// StorageBackend names the active backend for health reporting
	StorageBackend string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Storage, cfg.StorageBackend)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	baseHandler := handlers.NewBaseHandler()
	poHandler := handlers.NewPurchaseOrderHandler(baseHandler, cfg.PurchaseOrders, cfg.Engine, cfg.Fallbacks)
	soHandler := handlers.NewSaleOrderHandler(baseHandler, cfg.SaleOrders)

	// API v1
	api := router.Group("/api/v1")
	{
		po := api.Group("/purchase-orders")
		{
			po.POST("", poHandler.Create)
			po.GET("", poHandler.List)
			po.GET("/:id", poHandler.Get)
			po.POST("/:id/submit-expected", poHandler.SubmitExpected)
			po.POST("/:id/generate-settlement", poHandler.GenerateSettlement)
			po.PUT("/:id/fallback-prices", poHandler.SubmitFallbackPrices)
			po.GET("/:id/fallback-prices", poHandler.ListFallbackPrices)
			po.POST("/:id/patty-price", poHandler.AdjustPattyPrice)
			po.POST("/:id/finalize", poHandler.Finalize)
		}

		so := api.Group("/sale-orders")
		{
			so.POST("", soHandler.Create)
			so.GET("", soHandler.List)
			so.GET("/:id", soHandler.Get)
			so.POST("/:id/submit-expected", soHandler.SubmitExpected)
			so.POST("/:id/submit-actual", soHandler.SubmitActual)
		}
	}

	return router
}
