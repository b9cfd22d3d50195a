package catalog_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/infrastructure/storage/postgres"
)

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	*BaseCatalogRepo[*category.Category]
}

var _ category.Repository = (*CategoryRepo)(nil)

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txManager *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"categories",
			"Category",
			postgres.ExtractDBColumns[category.Category](),
			[]string{"name", "description"},
			func() *category.Category { return new(category.Category) },
		),
	}
}

// GetByName implements category.Repository (case-insensitive).
func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*category.Category, error) {
	name = strings.TrimSpace(name)
	q := r.baseSelect().
		Where(squirrel.Expr("LOWER(name) = LOWER(?)", name)).
		Limit(1)
	return r.FindOne(ctx, q, name)
}
