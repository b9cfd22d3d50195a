package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// ProductHTTPHandler is the catalog part of the product endpoints.
type ProductHTTPHandler = CatalogHandler[
	*product.Product,
	dto.CreateProductRequest,
	dto.UpdateProductRequest,
]

// ProductHandler serves products, their batches and stock corrections.
type ProductHandler struct {
	*ProductHTTPHandler
	products *product.Service
	ledger   *ledger.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, products *product.Service, ledgerSvc *ledger.Service) *ProductHandler {
	catalog := NewCatalogHandler(base, CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
	]{
		Service:    products,
		EntityName: "product",
		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},
	})

	return &ProductHandler{
		ProductHTTPHandler: catalog,
		products:           products,
		ledger:             ledgerSvc,
	}
}

// Batches handles GET /products/:id/batches, soonest expiry first.
func (h *ProductHandler) Batches(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	batches, err := h.products.GetBatchesByProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if batches == nil {
		batches = []*product.Batch{}
	}

	c.JSON(http.StatusOK, gin.H{"items": batches})
}

// EnableBatchTracking handles POST /products/:id/batch-tracking.
func (h *ProductHandler) EnableBatchTracking(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.EnableBatchTrackingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.ledger.EnableBatchTracking(c.Request.Context(), productID, req.ToReceipt(time.Now().UTC()))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"productId": productID, "openingBatch": batch})
}

// AdjustStock handles POST /products/:id/stock-adjustments.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.StockAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	change, err := h.ledger.ResolveStockDelta(c.Request.Context(), productID, req.Delta, req.BatchID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, change)
}

// Reconcile handles POST /products/:id/reconcile?fix=true.
func (h *ProductHandler) Reconcile(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	res, err := h.ledger.ReconcileProduct(c.Request.Context(), productID, c.Query("fix") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, res)
}
