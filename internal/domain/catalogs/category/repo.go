package category

import (
	"context"

	"shopledger/internal/domain"
)

// Repository defines data access for categories.
type Repository interface {
	domain.CatalogRepository[*Category]

	// GetByName performs a case-insensitive lookup.
	GetByName(ctx context.Context, name string) (*Category, error)
}
