// Package sale provides the Sale document: an immutable record of goods
// leaving the shop, optionally on credit to a customer.
package sale

import (
	"context"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Sale is a committed sale.
type Sale struct {
	entity.Document

	// CustomerID is required when DueAmount > 0
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`

	// Subtotal = sum(Quantity * UnitPrice)
	Subtotal types.Money `db:"subtotal" json:"subtotal"`

	// Discount is the bill-level discount
	Discount types.Money `db:"discount" json:"discount"`

	// Total = Subtotal - Discount
	Total types.Money `db:"total" json:"total"`

	// DueAmount is the unpaid part added to the customer's balance
	DueAmount types.Money `db:"due_amount" json:"dueAmount"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a sold item.
type Line struct {
	LineID    id.ID  `db:"line_id" json:"lineId"`
	SaleID    id.ID  `db:"sale_id" json:"-"`
	LineNo    int    `db:"line_no" json:"lineNo"`
	ProductID id.ID  `db:"product_id" json:"productId"`
	BatchID   *id.ID `db:"batch_id" json:"batchId,omitempty"`
	Quantity  int64  `db:"quantity" json:"quantity"`

	// UnitPrice is the price after item discount
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// Discount is the informational per-item discount amount
	Discount types.Money `db:"discount" json:"discount"`
}

// NewSale creates an empty sale dated now.
func NewSale() *Sale {
	return &Sale{
		Document:  entity.NewDocument(),
		Subtotal:  types.Zero(),
		Discount:  types.Zero(),
		Total:     types.Zero(),
		DueAmount: types.Zero(),
	}
}

// AddLine appends an item and keeps line numbering.
func (s *Sale) AddLine(productID id.ID, batchID *id.ID, qty int64, unitPrice types.Money) {
	s.Lines = append(s.Lines, Line{
		LineID:    id.New(),
		SaleID:    s.ID,
		LineNo:    len(s.Lines) + 1,
		ProductID: productID,
		BatchID:   batchID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Discount:  types.Zero(),
	})
}

// ComputeTotals fills Subtotal and Total from the lines and bill discount.
func (s *Sale) ComputeTotals() {
	s.Subtotal = s.LinesTotal()
	s.Total = s.Subtotal.Sub(s.Discount)
}

// LinesTotal returns sum(Quantity * UnitPrice).
func (s *Sale) LinesTotal() types.Money {
	total := types.Zero()
	for _, l := range s.Lines {
		total = total.Add(types.LineTotal(l.UnitPrice, l.Quantity))
	}
	return total
}

// PaidAmount is the part settled at the counter.
func (s *Sale) PaidAmount() types.Money {
	return s.Total.Sub(s.DueAmount)
}

// Validate checks the document's internal arithmetic and structure.
// References (customer, products, batches) are checked by the ledger.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if len(s.Lines) == 0 {
		return apperror.NewFieldValidation("lines", "at least one item is required")
	}

	for i, l := range s.Lines {
		if id.IsNil(l.ProductID) {
			return lineErr(i, "productId", "product is required")
		}
		if l.Quantity <= 0 {
			return lineErr(i, "quantity", "quantity must be positive")
		}
		if l.UnitPrice.IsNegative() {
			return lineErr(i, "unitPrice", "unit price cannot be negative")
		}
		if l.Discount.IsNegative() {
			return lineErr(i, "discount", "discount cannot be negative")
		}
		if err := entity.CheckMoneyScale("unitPrice", l.UnitPrice); err != nil {
			return err.WithDetail("lineNo", i+1)
		}
		if err := entity.CheckMoneyScale("discount", l.Discount); err != nil {
			return err.WithDetail("lineNo", i+1)
		}
	}

	if s.Discount.IsNegative() {
		return apperror.NewFieldValidation("discount", "discount cannot be negative")
	}

	for _, m := range []struct {
		field string
		value types.Money
	}{
		{"subtotal", s.Subtotal},
		{"discount", s.Discount},
		{"total", s.Total},
		{"dueAmount", s.DueAmount},
	} {
		if err := entity.CheckMoneyScale(m.field, m.value); err != nil {
			return err
		}
	}

	if !types.Equal(s.Subtotal, s.LinesTotal()) {
		return apperror.NewFieldValidation("subtotal", "subtotal does not match line totals").
			WithDetail("expected", s.LinesTotal().String())
	}

	if !types.Equal(s.Total, s.Subtotal.Sub(s.Discount)) {
		return apperror.NewFieldValidation("total", "total must equal subtotal minus discount").
			WithDetail("expected", s.Subtotal.Sub(s.Discount).String())
	}

	if s.Total.IsNegative() {
		return apperror.NewFieldValidation("discount", "discount exceeds subtotal")
	}

	if s.DueAmount.IsNegative() || s.DueAmount.GreaterThan(s.Total) {
		return apperror.NewFieldValidation("dueAmount", "due amount must be between 0 and total")
	}

	if s.DueAmount.IsPositive() && s.CustomerID == nil {
		return apperror.NewFieldValidation("customerId", "a customer is required for a sale with a due amount")
	}

	return nil
}

// ProductIDs returns the distinct products on the sale.
func (s *Sale) ProductIDs() []id.ID {
	seen := make(map[id.ID]struct{}, len(s.Lines))
	out := make([]id.ID, 0, len(s.Lines))
	for _, l := range s.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l.ProductID)
	}
	return out
}

// NewReversal builds the compensating sale: same lines, same amounts,
// linked to the original through ReversalOf.
func NewReversal(original *Sale) (*Sale, error) {
	doc, err := entity.NewReversalDocument("Sale", &original.Document)
	if err != nil {
		return nil, err
	}
	rev := &Sale{
		Document:   doc,
		CustomerID: original.CustomerID,
		Subtotal:   original.Subtotal,
		Discount:   original.Discount,
		Total:      original.Total,
		DueAmount:  original.DueAmount,
	}
	for _, l := range original.Lines {
		rev.Lines = append(rev.Lines, Line{
			LineID:    id.New(),
			SaleID:    rev.ID,
			LineNo:    l.LineNo,
			ProductID: l.ProductID,
			BatchID:   l.BatchID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
		})
	}
	return rev, nil
}

func lineErr(idx int, field, msg string) error {
	return apperror.NewFieldValidation(field, msg).WithDetail("lineNo", idx+1)
}
