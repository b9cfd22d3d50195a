package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// Documents are append-only: there is no update or delete, only reversal.

// SaleHandler serves sales.
type SaleHandler struct {
	*BaseHandler
	ledger *ledger.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, ledgerSvc *ledger.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, ledger: ledgerSvc}
}

// Create handles POST /sales.
func (h *SaleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	saleID, err := h.ledger.ApplySale(ctx, req.ToEntity())
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.ledger.GetSale(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.ledger.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List handles GET /sales?customerId=.
func (h *SaleHandler) List(c *gin.Context) {
	filter, ok := h.BindListFilter(c, "")
	if !ok {
		return
	}
	customerID, err := dto.ParsePartyID("customerId", c.Query("customerId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	filter.PartyID = customerID

	result, err := h.ledger.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(result))
}

// Reverse handles POST /sales/:id/reverse.
func (h *SaleHandler) Reverse(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	revID, err := h.ledger.ReverseSale(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	rev, err := h.ledger.GetSale(ctx, revID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rev)
}

// PurchaseHandler serves purchases.
type PurchaseHandler struct {
	*BaseHandler
	ledger *ledger.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, ledgerSvc *ledger.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, ledger: ledgerSvc}
}

// Create handles POST /purchases.
func (h *PurchaseHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	purchaseID, err := h.ledger.ApplyPurchase(ctx, req.ToEntity())
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.ledger.GetPurchase(ctx, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /purchases/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.ledger.GetPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List handles GET /purchases?supplierId=.
func (h *PurchaseHandler) List(c *gin.Context) {
	filter, ok := h.BindListFilter(c, "")
	if !ok {
		return
	}
	supplierID, err := dto.ParsePartyID("supplierId", c.Query("supplierId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	filter.PartyID = supplierID

	result, err := h.ledger.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(result))
}

// Reverse handles POST /purchases/:id/reverse.
func (h *PurchaseHandler) Reverse(c *gin.Context) {
	ctx := c.Request.Context()

	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	revID, err := h.ledger.ReversePurchase(ctx, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	rev, err := h.ledger.GetPurchase(ctx, revID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rev)
}
