// Package product provides the product catalog and its expiry-dated batches.
package product

import (
	"context"
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

var hundred = types.NewMoneyFromInt(100)

// Product is a sellable item.
//
// For a batch-tracked product Stock always equals the sum of its batches'
// CurrentStock and ExpiryDate is unused. Otherwise Stock is the only counter.
type Product struct {
	entity.BaseEntity

	Name       string  `db:"name" json:"name"`
	CategoryID *id.ID  `db:"category_id" json:"categoryId,omitempty"`
	Barcode    *string `db:"barcode" json:"barcode,omitempty"`

	// BuyPrice is the last purchase price (updated by every purchase line)
	BuyPrice  types.Money `db:"buy_price" json:"buyPrice"`
	SellPrice types.Money `db:"sell_price" json:"sellPrice"`

	// DiscountPercent is the default item discount, 0..100
	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`

	Stock        int64 `db:"stock" json:"stock"`
	ReorderLevel int64 `db:"reorder_level" json:"reorderLevel"`

	IsBatchTracked bool       `db:"is_batch_tracked" json:"isBatchTracked"`
	ExpiryDate     *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
}

// NewProduct creates a product without stock.
func NewProduct(name string, sellPrice types.Money) *Product {
	return &Product{
		BaseEntity:      entity.NewBaseEntity(),
		Name:            strings.TrimSpace(name),
		BuyPrice:        types.Zero(),
		SellPrice:       sellPrice,
		DiscountPercent: types.Zero(),
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if p.BuyPrice.IsNegative() {
		return apperror.NewFieldValidation("buyPrice", "buy price cannot be negative")
	}
	if p.SellPrice.IsNegative() {
		return apperror.NewFieldValidation("sellPrice", "sell price cannot be negative")
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		return apperror.NewFieldValidation("discountPercent", "discount must be between 0 and 100")
	}
	if err := entity.CheckMoneyScale("buyPrice", p.BuyPrice); err != nil {
		return err
	}
	if err := entity.CheckMoneyScale("sellPrice", p.SellPrice); err != nil {
		return err
	}
	if err := entity.CheckMoneyScale("discountPercent", p.DiscountPercent); err != nil {
		return err
	}
	if p.Stock < 0 {
		return apperror.NewFieldValidation("stock", "stock cannot be negative")
	}
	if p.ReorderLevel < 0 {
		return apperror.NewFieldValidation("reorderLevel", "reorder level cannot be negative")
	}
	if p.IsBatchTracked && p.ExpiryDate != nil {
		return apperror.NewFieldValidation("expiryDate", "batch-tracked products carry expiry dates on batches")
	}
	return nil
}

// DiscountedPrice returns the sell price after the default discount.
func (p *Product) DiscountedPrice() types.Money {
	if p.DiscountPercent.IsZero() {
		return p.SellPrice
	}
	factor := hundred.Sub(p.DiscountPercent).Div(hundred)
	return types.Round(p.SellPrice.Mul(factor))
}

// IsLowStock reports whether stock has dropped to the reorder level.
func (p *Product) IsLowStock() bool {
	return p.ReorderLevel > 0 && p.Stock <= p.ReorderLevel
}

// Batch is an expiry-dated lot of a batch-tracked product.
// Batches are created on receipt or when tracking is enabled and are never deleted.
type Batch struct {
	entity.BaseEntity

	ProductID    id.ID       `db:"product_id" json:"productId"`
	BatchNumber  string      `db:"batch_number" json:"batchNumber"`
	ExpiryDate   *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`
	InitialStock int64       `db:"initial_stock" json:"initialStock"`
	CurrentStock int64       `db:"current_stock" json:"currentStock"`
	BuyPrice     types.Money `db:"buy_price" json:"buyPrice"`
	PurchaseDate time.Time   `db:"purchase_date" json:"purchaseDate"`
}

// NewBatch creates a batch holding qty units.
func NewBatch(productID id.ID, number string, qty int64, buyPrice types.Money, expiry *time.Time, purchased time.Time) *Batch {
	return &Batch{
		BaseEntity:   entity.NewBaseEntity(),
		ProductID:    productID,
		BatchNumber:  strings.TrimSpace(number),
		ExpiryDate:   expiry,
		InitialStock: qty,
		CurrentStock: qty,
		BuyPrice:     buyPrice,
		PurchaseDate: purchased,
	}
}

// Validate implements entity.Validatable interface.
func (b *Batch) Validate(ctx context.Context) error {
	if id.IsNil(b.ProductID) {
		return apperror.NewFieldValidation("productId", "product is required")
	}
	if b.BatchNumber == "" {
		return apperror.NewFieldValidation("batchNumber", "batch number is required")
	}
	if b.CurrentStock < 0 || b.CurrentStock > b.InitialStock {
		return apperror.NewValidation("batch stock out of range").
			WithDetail("field", "currentStock").
			WithDetail("current", b.CurrentStock).
			WithDetail("initial", b.InitialStock)
	}
	return nil
}

// DaysToExpiry returns whole days from now to expiry, or nil without an expiry date.
func (b *Batch) DaysToExpiry(now time.Time) *int64 {
	return daysBetween(now, b.ExpiryDate)
}

// DaysToExpiry returns whole days from now to the product expiry date.
func (p *Product) DaysToExpiry(now time.Time) *int64 {
	return daysBetween(now, p.ExpiryDate)
}

func daysBetween(now time.Time, expiry *time.Time) *int64 {
	if expiry == nil {
		return nil
	}
	from := now.UTC().Truncate(24 * time.Hour)
	to := expiry.UTC().Truncate(24 * time.Hour)
	days := int64(to.Sub(from) / (24 * time.Hour))
	return &days
}
