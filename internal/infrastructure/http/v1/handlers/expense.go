package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// CategoryHTTPHandler serves categories. Categories have no update endpoint.
type CategoryHTTPHandler = CatalogHandler[
	*category.Category,
	dto.CreateCategoryRequest,
	dto.CreateCategoryRequest,
]

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(base *BaseHandler, service *category.Service) *CategoryHTTPHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[
		*category.Category,
		dto.CreateCategoryRequest,
		dto.CreateCategoryRequest,
	]{
		Service:    service,
		EntityName: "category",
		MapCreateDTO: func(req dto.CreateCategoryRequest) *category.Category {
			return req.ToEntity()
		},
	})
}

// ExpenseHandler serves expenses.
type ExpenseHandler struct {
	*BaseHandler
	service *expense.Service
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(base *BaseHandler, service *expense.Service) *ExpenseHandler {
	return &ExpenseHandler{BaseHandler: base, service: service}
}

// Create handles POST /expenses.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// Get handles GET /expenses/:id.
func (h *ExpenseHandler) Get(c *gin.Context) {
	expenseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), expenseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// List handles GET /expenses?dateFrom=&dateTo=&search=.
func (h *ExpenseHandler) List(c *gin.Context) {
	filter, ok := h.BindListFilter(c, "")
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(result))
}
