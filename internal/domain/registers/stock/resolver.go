// Package stock resolves stock changes against products and their batches.
//
// For a batch-tracked product the resolver is the only writer of both the
// batch counters and the product counter, and it always rewrites the product
// counter as the sum of the batches. Transactions are managed by the caller.
package stock

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/pkg/logger"
)

// DefaultOpeningBatch is the batch number used when tracking is enabled
// on a product with stock and no number is given.
const DefaultOpeningBatch = "OPENING"

// BatchReceipt describes the batch a received quantity belongs to.
type BatchReceipt struct {
	BatchNumber  string
	ExpiryDate   *time.Time
	BuyPrice     types.Money
	PurchaseDate time.Time
}

// Change reports the outcome of one resolver operation.
type Change struct {
	ProductID id.ID  `json:"productId"`
	BatchID   *id.ID `json:"batchId,omitempty"`
	Delta     int64  `json:"delta"`
	// Stock is the product counter after the change
	Stock int64 `json:"stock"`
	// BatchStock is the batch counter after the change (batch-tracked only)
	BatchStock int64 `json:"batchStock,omitempty"`
	// BatchCreated is true when Receive opened a new batch
	BatchCreated bool `json:"batchCreated,omitempty"`
}

// Resolver applies stock deltas.
type Resolver struct {
	products product.Repository
	batches  product.BatchRepository
}

// NewResolver creates a new stock resolver.
func NewResolver(products product.Repository, batches product.BatchRepository) *Resolver {
	return &Resolver{
		products: products,
		batches:  batches,
	}
}

// Deduct removes qty units (sale path). A batch-tracked product needs the
// batch to take from; a product without tracking must not be given one.
func (r *Resolver) Deduct(ctx context.Context, productID id.ID, qty int64, batchID *id.ID) (*Change, error) {
	if qty <= 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}

	p, err := r.lockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !p.IsBatchTracked {
		if batchID != nil {
			return nil, notTrackedErr(p)
		}
		if p.Stock-qty < 0 {
			return nil, apperror.NewInsufficientStock(p.ID.String(), "", qty, p.Stock)
		}
		p.Stock -= qty
		if err := r.products.UpdateInventory(ctx, p); err != nil {
			return nil, fmt.Errorf("update product stock: %w", err)
		}
		return &Change{ProductID: p.ID, Delta: -qty, Stock: p.Stock}, nil
	}

	if batchID == nil {
		return nil, apperror.NewBatchRequired(p.ID.String())
	}

	b, err := r.lockBatch(ctx, p, *batchID)
	if err != nil {
		return nil, err
	}
	if b.CurrentStock-qty < 0 {
		return nil, apperror.NewInsufficientStock(p.ID.String(), b.ID.String(), qty, b.CurrentStock).
			WithDetail("batch_number", b.BatchNumber)
	}
	b.CurrentStock -= qty
	if err := r.batches.UpdateStock(ctx, b); err != nil {
		return nil, fmt.Errorf("update batch stock: %w", err)
	}

	if err := r.syncProductStock(ctx, p); err != nil {
		return nil, err
	}

	batchRef := b.ID
	return &Change{ProductID: p.ID, BatchID: &batchRef, Delta: -qty, Stock: p.Stock, BatchStock: b.CurrentStock}, nil
}

// Receive adds qty units (purchase path). For a batch-tracked product the
// receipt's batch number selects an existing batch, which grows, or opens a
// new one.
func (r *Resolver) Receive(ctx context.Context, productID id.ID, qty int64, receipt *BatchReceipt) (*Change, error) {
	if qty <= 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}

	p, err := r.lockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !p.IsBatchTracked {
		p.Stock += qty
		if err := r.products.UpdateInventory(ctx, p); err != nil {
			return nil, fmt.Errorf("update product stock: %w", err)
		}
		return &Change{ProductID: p.ID, Delta: qty, Stock: p.Stock}, nil
	}

	if receipt == nil || receipt.BatchNumber == "" {
		return nil, apperror.NewFieldValidation("batchNumber", "batch number is required for batch-tracked product").
			WithDetail("product_id", p.ID.String())
	}

	created := false
	b, err := r.batches.GetByNumber(ctx, p.ID, receipt.BatchNumber)
	switch {
	case err == nil:
		b, err = r.batches.GetForUpdate(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("lock batch: %w", err)
		}
		b.InitialStock += qty
		b.CurrentStock += qty
		if err := r.batches.UpdateStock(ctx, b); err != nil {
			return nil, fmt.Errorf("update batch stock: %w", err)
		}
	case apperror.IsNotFound(err):
		purchased := receipt.PurchaseDate
		if purchased.IsZero() {
			purchased = time.Now().UTC()
		}
		b = product.NewBatch(p.ID, receipt.BatchNumber, qty, receipt.BuyPrice, receipt.ExpiryDate, purchased)
		if err := b.Validate(ctx); err != nil {
			return nil, err
		}
		if err := r.batches.Create(ctx, b); err != nil {
			return nil, fmt.Errorf("create batch: %w", err)
		}
		created = true
	default:
		return nil, fmt.Errorf("find batch: %w", err)
	}

	if err := r.syncProductStock(ctx, p); err != nil {
		return nil, err
	}

	logger.Debug(ctx, "stock received",
		"product_id", p.ID,
		"batch_id", b.ID,
		"qty", qty,
		"batch_created", created,
	)

	batchRef := b.ID
	return &Change{
		ProductID:    p.ID,
		BatchID:      &batchRef,
		Delta:        qty,
		Stock:        p.Stock,
		BatchStock:   b.CurrentStock,
		BatchCreated: created,
	}, nil
}

// Restore returns qty units to an existing product or batch (reversals and
// positive adjustments). A batch whose current stock would exceed its initial
// stock has the initial stock raised to match.
func (r *Resolver) Restore(ctx context.Context, productID id.ID, qty int64, batchID *id.ID) (*Change, error) {
	if qty <= 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}

	p, err := r.lockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !p.IsBatchTracked {
		if batchID != nil {
			return nil, notTrackedErr(p)
		}
		p.Stock += qty
		if err := r.products.UpdateInventory(ctx, p); err != nil {
			return nil, fmt.Errorf("update product stock: %w", err)
		}
		return &Change{ProductID: p.ID, Delta: qty, Stock: p.Stock}, nil
	}

	if batchID == nil {
		return nil, apperror.NewBatchRequired(p.ID.String())
	}

	b, err := r.lockBatch(ctx, p, *batchID)
	if err != nil {
		return nil, err
	}
	b.CurrentStock += qty
	if b.CurrentStock > b.InitialStock {
		b.InitialStock = b.CurrentStock
	}
	if err := r.batches.UpdateStock(ctx, b); err != nil {
		return nil, fmt.Errorf("update batch stock: %w", err)
	}

	if err := r.syncProductStock(ctx, p); err != nil {
		return nil, err
	}

	batchRef := b.ID
	return &Change{ProductID: p.ID, BatchID: &batchRef, Delta: qty, Stock: p.Stock, BatchStock: b.CurrentStock}, nil
}

// Adjust applies a signed manual correction: negative deltas deduct,
// positive deltas restore.
func (r *Resolver) Adjust(ctx context.Context, productID id.ID, delta int64, batchID *id.ID) (*Change, error) {
	switch {
	case delta < 0:
		return r.Deduct(ctx, productID, -delta, batchID)
	case delta > 0:
		return r.Restore(ctx, productID, delta, batchID)
	default:
		return nil, apperror.NewFieldValidation("delta", "delta must not be zero")
	}
}

// EnableBatchTracking switches a product to batch tracking. Existing stock
// moves into one opening batch so the sum invariant holds from the start.
// Returns the opening batch, or nil when the product had no stock.
func (r *Resolver) EnableBatchTracking(ctx context.Context, productID id.ID, opening BatchReceipt) (*product.Batch, error) {
	p, err := r.lockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.IsBatchTracked {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "product is already batch-tracked").
			WithDetail("product_id", p.ID.String())
	}

	var batch *product.Batch
	if p.Stock > 0 {
		number := opening.BatchNumber
		if number == "" {
			number = DefaultOpeningBatch
		}
		expiry := opening.ExpiryDate
		if expiry == nil {
			expiry = p.ExpiryDate
		}
		price := opening.BuyPrice
		if price.IsZero() {
			price = p.BuyPrice
		}
		purchased := opening.PurchaseDate
		if purchased.IsZero() {
			purchased = time.Now().UTC()
		}

		batch = product.NewBatch(p.ID, number, p.Stock, price, expiry, purchased)
		if err := batch.Validate(ctx); err != nil {
			return nil, err
		}
		if err := r.batches.Create(ctx, batch); err != nil {
			return nil, fmt.Errorf("create opening batch: %w", err)
		}
	}

	p.IsBatchTracked = true
	p.ExpiryDate = nil
	if err := r.syncProductStock(ctx, p); err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch tracking enabled", "product_id", p.ID, "opening_stock", p.Stock)
	return batch, nil
}

// RecomputeProductStock rewrites a batch-tracked product's counter from its
// batches and returns the previous and the new value.
func (r *Resolver) RecomputeProductStock(ctx context.Context, productID id.ID) (before, after int64, err error) {
	p, err := r.lockProduct(ctx, productID)
	if err != nil {
		return 0, 0, err
	}
	before = p.Stock
	if !p.IsBatchTracked {
		return before, before, nil
	}
	if err := r.syncProductStock(ctx, p); err != nil {
		return 0, 0, err
	}
	return before, p.Stock, nil
}

func (r *Resolver) syncProductStock(ctx context.Context, p *product.Product) error {
	sum, err := r.batches.SumCurrentStock(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("sum batch stock: %w", err)
	}
	p.Stock = sum
	if err := r.products.UpdateInventory(ctx, p); err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	return nil
}

func (r *Resolver) lockProduct(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, err := r.products.GetForUpdate(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Product", productID.String())
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return p, nil
}

func (r *Resolver) lockBatch(ctx context.Context, p *product.Product, batchID id.ID) (*product.Batch, error) {
	b, err := r.batches.GetForUpdate(ctx, batchID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Batch", batchID.String())
		}
		return nil, fmt.Errorf("lock batch: %w", err)
	}
	if b.ProductID != p.ID {
		return nil, apperror.NewFieldValidation("batchId", "batch does not belong to product").
			WithDetail("product_id", p.ID.String()).
			WithDetail("batch_id", batchID.String())
	}
	return b, nil
}

func notTrackedErr(p *product.Product) error {
	return apperror.NewFieldValidation("batchId", "product is not batch-tracked").
		WithDetail("product_id", p.ID.String())
}
