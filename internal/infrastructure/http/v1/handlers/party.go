package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// PartyHandler serves customers or suppliers. One instance per kind;
// a party of the other kind is reported as not found.
type PartyHandler struct {
	*BaseHandler
	kind    party.Kind
	parties *party.Service
	ledger  *ledger.Service
}

// NewPartyHandler creates a handler for parties of one kind.
func NewPartyHandler(base *BaseHandler, kind party.Kind, parties *party.Service, ledgerSvc *ledger.Service) *PartyHandler {
	return &PartyHandler{
		BaseHandler: base,
		kind:        kind,
		parties:     parties,
		ledger:      ledgerSvc,
	}
}

// List handles GET /customers and GET /suppliers.
func (h *PartyHandler) List(c *gin.Context) {
	filter, ok := h.BindListFilter(c, "name")
	if !ok {
		return
	}

	result, err := h.parties.ListOfKind(c.Request.Context(), h.kind, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(result))
}

// Get handles GET /{kind}/:id.
func (h *PartyHandler) Get(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create handles POST /{kind}. A non-zero openingBalance is booked as a payment
// event right after the party is created.
func (h *PartyHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity(h.kind)
	if err := h.parties.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	if req.OpeningBalance != nil && !req.OpeningBalance.IsZero() {
		if _, err := h.ledger.RecordOpeningBalance(ctx, p.ID, *req.OpeningBalance); err != nil {
			h.Error(c, err)
			return
		}
		reloaded, err := h.parties.GetOfKind(ctx, h.kind, p.ID)
		if err != nil {
			h.Error(c, err)
			return
		}
		p = reloaded
	}

	h.Created(c, p)
}

// Update handles PUT /{kind}/:id. Only contact data changes.
func (h *PartyHandler) Update(c *gin.Context) {
	var req dto.UpdatePartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, ok := h.load(c)
	if !ok {
		return
	}

	req.ApplyTo(p)
	if err := h.parties.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// CreatePayment handles POST /{kind}/:id/payments.
func (h *PartyHandler) CreatePayment(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if h.kind == party.KindCustomer {
		paymentID, err := h.ledger.ApplyCustomerPayment(ctx, req.ToCustomerPayment(partyID))
		if err != nil {
			h.Error(c, err)
			return
		}
		doc, err := h.ledger.GetCustomerPayment(ctx, paymentID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.Created(c, doc)
		return
	}

	paymentID, err := h.ledger.ApplySupplierPayment(ctx, req.ToSupplierPayment(partyID))
	if err != nil {
		h.Error(c, err)
		return
	}
	doc, err := h.ledger.GetSupplierPayment(ctx, paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// ReversePayment handles POST /{kind}/:id/payments/:paymentId/reverse.
func (h *PartyHandler) ReversePayment(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.ParseID(c, "paymentId")
	if !ok {
		return
	}

	if h.kind == party.KindCustomer {
		original, err := h.ledger.GetCustomerPayment(ctx, paymentID)
		if err != nil {
			h.Error(c, err)
			return
		}
		if original.CustomerID != partyID {
			h.Error(c, apperror.NewNotFound("Payment", paymentID.String()))
			return
		}
		revID, err := h.ledger.ReverseCustomerPayment(ctx, paymentID)
		if err != nil {
			h.Error(c, err)
			return
		}
		rev, err := h.ledger.GetCustomerPayment(ctx, revID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.Created(c, rev)
		return
	}

	original, err := h.ledger.GetSupplierPayment(ctx, paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if original.SupplierID != partyID {
		h.Error(c, apperror.NewNotFound("SupplierPayment", paymentID.String()))
		return
	}
	revID, err := h.ledger.ReverseSupplierPayment(ctx, paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	rev, err := h.ledger.GetSupplierPayment(ctx, revID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rev)
}

// Ledger handles GET /{kind}/:id/ledger.
func (h *PartyHandler) Ledger(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}

	view, err := h.ledger.GetPartyLedger(c.Request.Context(), p.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Reconcile handles POST /{kind}/:id/reconcile?fix=true.
func (h *PartyHandler) Reconcile(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}

	res, err := h.ledger.ReconcileParty(c.Request.Context(), p.ID, c.Query("fix") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, res)
}

// load fetches the :id party, checking its kind.
func (h *PartyHandler) load(c *gin.Context) (*party.Party, bool) {
	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return nil, false
	}

	p, err := h.parties.GetOfKind(c.Request.Context(), h.kind, partyID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return p, true
}
