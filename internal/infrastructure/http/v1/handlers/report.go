package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/reports"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// ReportHandler serves read-only reports.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// StockBalance handles GET /reports/stock-balance.
func (h *ReportHandler) StockBalance(c *gin.Context) {
	var q dto.StockBalanceQuery
	if !h.BindQuery(c, &q) {
		return
	}

	report, err := h.service.GetStockBalance(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// PartyBalances handles GET /reports/party-balances?kind=customer|supplier.
func (h *ReportHandler) PartyBalances(c *gin.Context) {
	kind := party.Kind(c.DefaultQuery("kind", string(party.KindCustomer)))

	summary, err := h.service.GetPartyBalances(c.Request.Context(), kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Summary handles GET /reports/summary?dateFrom=&dateTo=.
func (h *ReportHandler) Summary(c *gin.Context) {
	var q dto.PeriodQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.service.GetPeriodSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}
