// Package v1 provides HTTP API version 1.
package v1

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"shopledger/internal/core/idempotency"
	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/domain/reports"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Ledger     *ledger.Service
	Products   *product.Service
	Parties    *party.Service
	Categories *category.Service
	Expenses   *expense.Service
	Reports    *reports.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// Idempotency stores X-Idempotency-Key responses; nil disables the middleware
	Idempotency idempotency.Store

	// Pool is used by readiness checks; nil with the in-memory store
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// Mode is the gin mode (debug, release, test)
	Mode string

	// CORSOrigins lists allowed browser origins; "*" allows any, empty disables CORS
	CORSOrigins []string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())
	if len(cfg.CORSOrigins) > 0 {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	registerCatalogRoutes(v1, cfg.Services)
	registerDocumentRoutes(v1, cfg.Services)
	if cfg.Services.Reports != nil {
		registerReportRoutes(v1, cfg.Services.Reports)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			middleware.HeaderIdempotencyKey, middleware.HeaderRequestID,
		},
		ExposeHeaders: []string{
			"Content-Length", middleware.HeaderRequestID, middleware.HeaderTraceID, "Idempotent-Replayed",
		},
		MaxAge: 12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// registerCatalogRoutes registers products, parties and categories.
func registerCatalogRoutes(rg *gin.RouterGroup, svc Services) {
	baseHandler := handlers.NewBaseHandler()

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(baseHandler, svc.Products, svc.Ledger)
		products := rg.Group("/products")
		RegisterCatalogRoutes(products, handler)
		products.GET("/:id/batches", handler.Batches)
		products.POST("/:id/batch-tracking", handler.EnableBatchTracking)
		products.POST("/:id/stock-adjustments", handler.AdjustStock)
		products.POST("/:id/reconcile", handler.Reconcile)
	}

	// --- CUSTOMERS / SUPPLIERS ---
	RegisterPartyRoutes(rg.Group("/customers"),
		handlers.NewPartyHandler(baseHandler, party.KindCustomer, svc.Parties, svc.Ledger))
	RegisterPartyRoutes(rg.Group("/suppliers"),
		handlers.NewPartyHandler(baseHandler, party.KindSupplier, svc.Parties, svc.Ledger))

	// --- CATEGORIES ---
	{
		handler := handlers.NewCategoryHandler(baseHandler, svc.Categories)
		categories := rg.Group("/categories")
		categories.GET("", handler.List)
		categories.POST("", handler.Create)
		categories.GET("/:id", handler.Get)
	}
}

// registerDocumentRoutes registers ledger documents and expenses.
func registerDocumentRoutes(rg *gin.RouterGroup, svc Services) {
	baseHandler := handlers.NewBaseHandler()

	RegisterDocumentRoutes(rg.Group("/sales"), handlers.NewSaleHandler(baseHandler, svc.Ledger))
	RegisterDocumentRoutes(rg.Group("/purchases"), handlers.NewPurchaseHandler(baseHandler, svc.Ledger))

	// --- EXPENSES ---
	{
		handler := handlers.NewExpenseHandler(baseHandler, svc.Expenses)
		expenses := rg.Group("/expenses")
		expenses.GET("", handler.List)
		expenses.POST("", handler.Create)
		expenses.GET("/:id", handler.Get)
	}
}

// registerReportRoutes registers read-only reports.
func registerReportRoutes(rg *gin.RouterGroup, svc *reports.Service) {
	handler := handlers.NewReportHandler(handlers.NewBaseHandler(), svc)
	r := rg.Group("/reports")
	{
		r.GET("/stock-balance", handler.StockBalance)
		r.GET("/party-balances", handler.PartyBalances)
		r.GET("/summary", handler.Summary)
	}
}
