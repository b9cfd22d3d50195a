package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
}

// DocumentRouteHandler defines the interface for ledger document handlers.
// Documents are never updated or deleted; they are reversed.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Reverse(c *gin.Context)
}

// PartyRouteHandler adds the ledger endpoints of customers and suppliers.
type PartyRouteHandler interface {
	CatalogRouteHandler
	CreatePayment(c *gin.Context)
	ReversePayment(c *gin.Context)
	Ledger(c *gin.Context)
	Reconcile(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
}

// RegisterDocumentRoutes registers create, read and reverse routes for a document.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.POST("/:id/reverse", handler.Reverse)
}

// RegisterPartyRoutes registers the routes of one party kind.
func RegisterPartyRoutes(group *gin.RouterGroup, handler PartyRouteHandler) {
	RegisterCatalogRoutes(group, handler)
	group.POST("/:id/payments", handler.CreatePayment)
	group.POST("/:id/payments/:paymentId/reverse", handler.ReversePayment)
	group.GET("/:id/ledger", handler.Ledger)
	group.POST("/:id/reconcile", handler.Reconcile)
}
