package dto

import (
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
)

// --- Sales ---

// SaleLineRequest is one sold item.
type SaleLineRequest struct {
	ProductID id.ID        `json:"productId"`
	BatchID   *id.ID       `json:"batchId"`
	Quantity  int64        `json:"quantity"`
	UnitPrice types.Money  `json:"unitPrice"`
	Discount  *types.Money `json:"discount"`
}

// CreateSaleRequest is the request body for a sale.
// Subtotal and Total are computed from the lines.
type CreateSaleRequest struct {
	CustomerID *id.ID            `json:"customerId"`
	Date       *time.Time        `json:"date"`
	Discount   *types.Money      `json:"discount"`
	DueAmount  *types.Money      `json:"dueAmount"`
	Notes      string            `json:"notes"`
	Lines      []SaleLineRequest `json:"lines" binding:"required,min=1"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSaleRequest) ToEntity() *sale.Sale {
	s := sale.NewSale()
	s.CustomerID = r.CustomerID
	if r.Date != nil {
		s.Date = *r.Date
	}
	s.Notes = r.Notes
	for i, l := range r.Lines {
		s.AddLine(l.ProductID, l.BatchID, l.Quantity, l.UnitPrice)
		if l.Discount != nil {
			s.Lines[i].Discount = *l.Discount
		}
	}
	if r.Discount != nil {
		s.Discount = *r.Discount
	}
	if r.DueAmount != nil {
		s.DueAmount = *r.DueAmount
	}
	s.ComputeTotals()
	return s
}

// --- Purchases ---

// PurchaseLineRequest is one received item.
type PurchaseLineRequest struct {
	ProductID   id.ID       `json:"productId"`
	Quantity    int64       `json:"quantity"`
	BuyPrice    types.Money `json:"buyPrice"`
	BatchNumber string      `json:"batchNumber"`
	ExpiryDate  *time.Time  `json:"expiryDate"`
}

// CreatePurchaseRequest is the request body for a purchase.
// GrandTotal and DueAmount are computed from the lines and PaidAmount.
type CreatePurchaseRequest struct {
	SupplierID *id.ID                `json:"supplierId"`
	Date       *time.Time            `json:"date"`
	PaidAmount *types.Money          `json:"paidAmount"`
	Notes      string                `json:"notes"`
	Lines      []PurchaseLineRequest `json:"lines" binding:"required,min=1"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePurchaseRequest) ToEntity() *purchase.Purchase {
	p := purchase.NewPurchase()
	p.SupplierID = r.SupplierID
	if r.Date != nil {
		p.Date = *r.Date
	}
	p.Notes = r.Notes
	for _, l := range r.Lines {
		p.AddLine(l.ProductID, l.Quantity, l.BuyPrice, l.BatchNumber, l.ExpiryDate)
	}
	if r.PaidAmount != nil {
		p.PaidAmount = *r.PaidAmount
	}
	p.ComputeTotals()
	return p
}

// --- Payments ---

// CreatePaymentRequest is a cash movement with a customer or supplier.
// Type is received|given for customers and paid|refund for suppliers.
type CreatePaymentRequest struct {
	Amount     types.Money `json:"amount"`
	Type       string      `json:"type" binding:"required"`
	Date       *time.Time  `json:"date"`
	Notes      string      `json:"notes"`
	PurchaseID *id.ID      `json:"purchaseId"`
}

// ToCustomerPayment converts DTO to a customer payment.
func (r *CreatePaymentRequest) ToCustomerPayment(customerID id.ID) *payment.Payment {
	p := payment.NewPayment(customerID, r.Amount, payment.Type(r.Type))
	if r.Date != nil {
		p.Date = *r.Date
	}
	p.Notes = r.Notes
	return p
}

// ToSupplierPayment converts DTO to a supplier payment.
func (r *CreatePaymentRequest) ToSupplierPayment(supplierID id.ID) *payment.SupplierPayment {
	p := payment.NewSupplierPayment(supplierID, r.Amount, payment.SupplierType(r.Type))
	if r.Date != nil {
		p.Date = *r.Date
	}
	p.Notes = r.Notes
	p.PurchaseID = r.PurchaseID
	return p
}

// --- Expenses ---

// CreateExpenseRequest is the request body for an expense.
type CreateExpenseRequest struct {
	Category string      `json:"category" binding:"required"`
	Amount   types.Money `json:"amount"`
	Date     *time.Time  `json:"date"`
	Notes    string      `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateExpenseRequest) ToEntity() *expense.Expense {
	e := expense.NewExpense(r.Category, r.Amount)
	if r.Date != nil {
		e.Date = *r.Date
	}
	e.Notes = r.Notes
	return e
}
