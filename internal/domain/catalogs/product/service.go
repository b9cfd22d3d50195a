package product

import (
	"context"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain"
)

// CategoryChecker verifies category references.
type CategoryChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}

// Service provides business operations for products.
// Stock is never written here; see registers/stock.
type Service struct {
	*domain.CatalogService[*Product]
	repo    Repository
	batches BatchRepository
}

// NewService creates a new product service. categories may be nil.
func NewService(repo Repository, batches BatchRepository, categories CategoryChecker, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "Product",
	})

	checkCategory := func(ctx context.Context, p *Product) error {
		if categories == nil || p.CategoryID == nil {
			return nil
		}
		ok, err := categories.Exists(ctx, *p.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewNotFound("Category", p.CategoryID.String())
		}
		return nil
	}

	base.Hooks().OnBeforeCreate(checkCategory)
	base.Hooks().OnBeforeCreate(func(ctx context.Context, p *Product) error {
		// batch-tracked stock only ever comes from batches
		if p.IsBatchTracked && p.Stock != 0 {
			return apperror.NewFieldValidation("stock", "batch-tracked products start with zero stock; receive stock through a purchase")
		}
		return nil
	})
	base.Hooks().OnBeforeUpdate(checkCategory)

	return &Service{
		CatalogService: base,
		repo:           repo,
		batches:        batches,
	}
}

// GetProduct returns the current product snapshot.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	return s.GetByID(ctx, productID)
}

// GetBatchesByProduct returns the product's batches, earliest expiry first.
func (s *Service) GetBatchesByProduct(ctx context.Context, productID id.ID) ([]*Batch, error) {
	if _, err := s.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := s.batches.ListByProduct(ctx, productID)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("product_id", productID.String())
	}
	return batches, nil
}
