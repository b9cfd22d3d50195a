package product

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/domain"
)

// Repository defines data access for products.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetForUpdate loads the product and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// UpdateInventory persists stock, tracking flag, expiry date and buy price.
	// Only the stock resolver and the ledger write these columns.
	UpdateInventory(ctx context.Context, p *Product) error

	// ListBatchTrackedIDs returns IDs of all batch-tracked products.
	ListBatchTrackedIDs(ctx context.Context) ([]id.ID, error)
}

// BatchRepository defines data access for product batches.
type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id id.ID) (*Batch, error)

	// GetForUpdate loads the batch and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Batch, error)

	// GetByNumber finds a product's batch by number; NotFound when absent.
	GetByNumber(ctx context.Context, productID id.ID, number string) (*Batch, error)

	// ListByProduct returns batches ordered by expiry date (earliest first,
	// undated last), then batch number.
	ListByProduct(ctx context.Context, productID id.ID) ([]*Batch, error)

	// UpdateStock persists InitialStock and CurrentStock.
	UpdateStock(ctx context.Context, b *Batch) error

	// SumCurrentStock returns the sum of CurrentStock over the product's batches.
	SumCurrentStock(ctx context.Context, productID id.ID) (int64, error)
}
