package dto

import (
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/registers/stock"
)

// --- Products ---

// CreateProductRequest is the request body for creating a product.
// Stock is never set here; it comes from purchases and stock adjustments.
type CreateProductRequest struct {
	Name            string       `json:"name" binding:"required"`
	CategoryID      *id.ID       `json:"categoryId"`
	Barcode         *string      `json:"barcode"`
	SellPrice       types.Money  `json:"sellPrice"`
	BuyPrice        *types.Money `json:"buyPrice"`
	DiscountPercent *types.Money `json:"discountPercent"`
	ReorderLevel    int64        `json:"reorderLevel" binding:"min=0"`
	IsBatchTracked  bool         `json:"isBatchTracked"`
	ExpiryDate      *time.Time   `json:"expiryDate"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Name, r.SellPrice)
	p.CategoryID = r.CategoryID
	p.Barcode = r.Barcode
	if r.BuyPrice != nil {
		p.BuyPrice = *r.BuyPrice
	}
	if r.DiscountPercent != nil {
		p.DiscountPercent = *r.DiscountPercent
	}
	p.ReorderLevel = r.ReorderLevel
	p.IsBatchTracked = r.IsBatchTracked
	if !r.IsBatchTracked {
		p.ExpiryDate = r.ExpiryDate
	}
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Name            string       `json:"name" binding:"required"`
	CategoryID      *id.ID       `json:"categoryId"`
	Barcode         *string      `json:"barcode"`
	SellPrice       types.Money  `json:"sellPrice"`
	BuyPrice        *types.Money `json:"buyPrice"`
	DiscountPercent *types.Money `json:"discountPercent"`
	ReorderLevel    int64        `json:"reorderLevel" binding:"min=0"`
	ExpiryDate      *time.Time   `json:"expiryDate"`
	Version         int          `json:"version" binding:"required,min=1"`
}

// ApplyTo updates existing entity with DTO values.
// Stock and the tracking flag are left untouched.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Name = r.Name
	p.CategoryID = r.CategoryID
	p.Barcode = r.Barcode
	p.SellPrice = r.SellPrice
	if r.BuyPrice != nil {
		p.BuyPrice = *r.BuyPrice
	}
	if r.DiscountPercent != nil {
		p.DiscountPercent = *r.DiscountPercent
	}
	p.ReorderLevel = r.ReorderLevel
	if !p.IsBatchTracked {
		p.ExpiryDate = r.ExpiryDate
	}
	p.Version = r.Version
}

// EnableBatchTrackingRequest converts a product to batch tracking.
// Existing stock becomes one opening batch.
type EnableBatchTrackingRequest struct {
	BatchNumber  string       `json:"batchNumber"`
	ExpiryDate   *time.Time   `json:"expiryDate"`
	BuyPrice     *types.Money `json:"buyPrice"`
	PurchaseDate *time.Time   `json:"purchaseDate"`
}

// ToReceipt converts DTO to the opening batch receipt.
func (r *EnableBatchTrackingRequest) ToReceipt(now time.Time) stock.BatchReceipt {
	receipt := stock.BatchReceipt{
		BatchNumber:  r.BatchNumber,
		ExpiryDate:   r.ExpiryDate,
		BuyPrice:     types.Zero(),
		PurchaseDate: now,
	}
	if r.BuyPrice != nil {
		receipt.BuyPrice = *r.BuyPrice
	}
	if r.PurchaseDate != nil {
		receipt.PurchaseDate = *r.PurchaseDate
	}
	return receipt
}

// StockAdjustmentRequest is a manual stock correction.
type StockAdjustmentRequest struct {
	Delta   int64  `json:"delta" binding:"required"`
	BatchID *id.ID `json:"batchId"`
	Reason  string `json:"reason"`
}

// --- Parties ---

// CreatePartyRequest is the request body for creating a customer or supplier.
type CreatePartyRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`

	// OpeningBalance is recorded as a ledger event after creation.
	OpeningBalance *types.Money `json:"openingBalance"`
}

// ToEntity converts DTO to domain entity of the given kind.
func (r *CreatePartyRequest) ToEntity(kind party.Kind) *party.Party {
	p := party.NewParty(kind, r.Name)
	p.Phone = r.Phone
	p.Email = r.Email
	p.Address = r.Address
	return p
}

// UpdatePartyRequest updates contact information. The balance is never updated here.
type UpdatePartyRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo updates existing entity with DTO values.
func (r *UpdatePartyRequest) ApplyTo(p *party.Party) {
	p.Name = r.Name
	p.Phone = r.Phone
	p.Email = r.Email
	p.Address = r.Address
	p.Version = r.Version
}

// --- Categories ---

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCategoryRequest) ToEntity() *category.Category {
	c := category.NewCategory(r.Name)
	c.Description = r.Description
	return c
}
