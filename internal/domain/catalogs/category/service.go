package category

import (
	"context"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain"
)

// Service provides business operations for categories.
type Service struct {
	*domain.CatalogService[*Category]
}

// NewService creates a new category service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "Category",
	})

	unique := func(ctx context.Context, c *Category) error {
		existing, err := repo.GetByName(ctx, c.Name)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil
			}
			return err
		}
		if existing.ID != c.ID {
			return apperror.NewDuplicate("Category", "name", c.Name)
		}
		return nil
	}
	base.Hooks().OnBeforeCreate(unique)
	base.Hooks().OnBeforeUpdate(unique)

	return &Service{CatalogService: base}
}
