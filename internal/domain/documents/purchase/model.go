// Package purchase provides the Purchase document: goods received from a
// supplier, with an optional amount paid on the spot.
package purchase

import (
	"context"
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Purchase is a committed goods receipt.
type Purchase struct {
	entity.Document

	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// GrandTotal = sum(Quantity * BuyPrice)
	GrandTotal types.Money `db:"grand_total" json:"grandTotal"`

	// PaidAmount is settled by a linked supplier payment
	PaidAmount types.Money `db:"paid_amount" json:"paidAmount"`

	// DueAmount = GrandTotal - PaidAmount
	DueAmount types.Money `db:"due_amount" json:"dueAmount"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a received item.
type Line struct {
	LineID     id.ID       `db:"line_id" json:"lineId"`
	PurchaseID id.ID       `db:"purchase_id" json:"-"`
	LineNo     int         `db:"line_no" json:"lineNo"`
	ProductID  id.ID       `db:"product_id" json:"productId"`
	Quantity   int64       `db:"quantity" json:"quantity"`
	BuyPrice   types.Money `db:"buy_price" json:"buyPrice"`

	// BatchNumber/ExpiryDate describe the batch for batch-tracked products
	BatchNumber string     `db:"batch_number" json:"batchNumber,omitempty"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	// BatchID is the batch the quantity went into, resolved on apply
	BatchID *id.ID `db:"batch_id" json:"batchId,omitempty"`
}

// NewPurchase creates an empty purchase dated now.
func NewPurchase() *Purchase {
	return &Purchase{
		Document:   entity.NewDocument(),
		GrandTotal: types.Zero(),
		PaidAmount: types.Zero(),
		DueAmount:  types.Zero(),
	}
}

// AddLine appends an item and keeps line numbering.
func (p *Purchase) AddLine(productID id.ID, qty int64, buyPrice types.Money, batchNumber string, expiry *time.Time) {
	p.Lines = append(p.Lines, Line{
		LineID:      id.New(),
		PurchaseID:  p.ID,
		LineNo:      len(p.Lines) + 1,
		ProductID:   productID,
		Quantity:    qty,
		BuyPrice:    buyPrice,
		BatchNumber: strings.TrimSpace(batchNumber),
		ExpiryDate:  expiry,
	})
}

// LinesTotal returns sum(Quantity * BuyPrice).
func (p *Purchase) LinesTotal() types.Money {
	total := types.Zero()
	for _, l := range p.Lines {
		total = total.Add(types.LineTotal(l.BuyPrice, l.Quantity))
	}
	return total
}

// ComputeTotals fills GrandTotal and DueAmount from the lines and PaidAmount.
func (p *Purchase) ComputeTotals() {
	p.GrandTotal = p.LinesTotal()
	p.DueAmount = p.GrandTotal.Sub(p.PaidAmount)
}

// Validate checks the document's internal arithmetic and structure.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if len(p.Lines) == 0 {
		return apperror.NewFieldValidation("lines", "at least one item is required")
	}

	for i, l := range p.Lines {
		if id.IsNil(l.ProductID) {
			return lineErr(i, "productId", "product is required")
		}
		if l.Quantity <= 0 {
			return lineErr(i, "quantity", "quantity must be positive")
		}
		if l.BuyPrice.IsNegative() {
			return lineErr(i, "buyPrice", "buy price cannot be negative")
		}
		if err := entity.CheckMoneyScale("buyPrice", l.BuyPrice); err != nil {
			return err.WithDetail("lineNo", i+1)
		}
	}

	for _, m := range []struct {
		field string
		value types.Money
	}{
		{"grandTotal", p.GrandTotal},
		{"paidAmount", p.PaidAmount},
		{"dueAmount", p.DueAmount},
	} {
		if err := entity.CheckMoneyScale(m.field, m.value); err != nil {
			return err
		}
	}

	if !types.Equal(p.GrandTotal, p.LinesTotal()) {
		return apperror.NewFieldValidation("grandTotal", "grand total does not match line totals").
			WithDetail("expected", p.LinesTotal().String())
	}

	if p.PaidAmount.IsNegative() || p.PaidAmount.GreaterThan(p.GrandTotal) {
		return apperror.NewFieldValidation("paidAmount", "paid amount must be between 0 and grand total")
	}

	if !types.Equal(p.DueAmount, p.GrandTotal.Sub(p.PaidAmount)) {
		return apperror.NewFieldValidation("dueAmount", "due amount must equal grand total minus paid amount").
			WithDetail("expected", p.GrandTotal.Sub(p.PaidAmount).String())
	}

	if p.DueAmount.IsPositive() && p.SupplierID == nil {
		return apperror.NewFieldValidation("supplierId", "a supplier is required for a purchase with a due amount")
	}

	return nil
}

// ProductIDs returns the distinct products on the purchase.
func (p *Purchase) ProductIDs() []id.ID {
	seen := make(map[id.ID]struct{}, len(p.Lines))
	out := make([]id.ID, 0, len(p.Lines))
	for _, l := range p.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l.ProductID)
	}
	return out
}

// NewReversal builds the compensating purchase. Lines keep the resolved
// BatchID so stock is taken back out of the same batches.
func NewReversal(original *Purchase) (*Purchase, error) {
	doc, err := entity.NewReversalDocument("Purchase", &original.Document)
	if err != nil {
		return nil, err
	}
	rev := &Purchase{
		Document:   doc,
		SupplierID: original.SupplierID,
		GrandTotal: original.GrandTotal,
		PaidAmount: original.PaidAmount,
		DueAmount:  original.DueAmount,
	}
	for _, l := range original.Lines {
		line := l
		line.LineID = id.New()
		line.PurchaseID = rev.ID
		rev.Lines = append(rev.Lines, line)
	}
	return rev, nil
}

func lineErr(idx int, field, msg string) error {
	return apperror.NewFieldValidation(field, msg).WithDetail("lineNo", idx+1)
}
