package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// productUpdateCols are the columns Update writes. Stock, tracking flag and
// buy price belong to the resolver and the ledger (UpdateInventory).
var productUpdateCols = []string{
	"name", "category_id", "barcode", "sell_price", "discount_percent", "reorder_level",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productsTable,
			"Product",
			postgres.ExtractDBColumns[product.Product](),
			productUpdateCols,
			func() *product.Product { return new(product.Product) },
		),
	}
}

// Update writes descriptive fields. The expiry date only applies to
// products without batch tracking.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.UpdateWith(ctx, p, productExpirySet(p))
}

func productExpirySet(p *product.Product) map[string]any {
	return map[string]any{
		"expiry_date": squirrel.Expr("CASE WHEN is_batch_tracked THEN NULL ELSE ?::timestamptz END", p.ExpiryDate),
	}
}

// UpdateInventory implements product.Repository.
func (r *ProductRepo) UpdateInventory(ctx context.Context, p *product.Product) error {
	sql, args, err := inventoryUpdate(p).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.WriteError("update inventory", "Product", "id", p.ID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("Product", p.ID.String())
	}
	return nil
}

func inventoryUpdate(p *product.Product) squirrel.UpdateBuilder {
	return builder.Update(productsTable).
		Set("stock", p.Stock).
		Set("is_batch_tracked", p.IsBatchTracked).
		Set("expiry_date", p.ExpiryDate).
		Set("buy_price", p.BuyPrice).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID})
}

// ListBatchTrackedIDs implements product.Repository.
func (r *ProductRepo) ListBatchTrackedIDs(ctx context.Context) ([]id.ID, error) {
	return r.SelectIDs(ctx, builder.Select("id").
		From(productsTable).
		Where(squirrel.Eq{"is_batch_tracked": true}).
		OrderBy("id"))
}
