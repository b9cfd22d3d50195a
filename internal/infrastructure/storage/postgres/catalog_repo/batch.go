package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/infrastructure/storage/postgres"
)

const batchesTable = "product_batches"

// BatchRepo implements product.BatchRepository.
type BatchRepo struct {
	base *BaseCatalogRepo[*product.Batch]
}

var _ product.BatchRepository = (*BatchRepo)(nil)

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		base: NewBaseCatalogRepo(
			txManager,
			batchesTable,
			"Batch",
			postgres.ExtractDBColumns[product.Batch](),
			nil,
			func() *product.Batch { return new(product.Batch) },
		),
	}
}

// Create implements product.BatchRepository. A second batch with the same
// number for the product is a duplicate.
func (r *BatchRepo) Create(ctx context.Context, b *product.Batch) error {
	data := postgres.StructToMap(b)
	sql, args, err := builder.Insert(batchesTable).SetMap(postgres.Pick(data, r.base.selectCols)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.base.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.WriteError("insert", "Batch", "batch_number", b.BatchNumber, err)
	}
	return nil
}

// GetByID implements product.BatchRepository.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*product.Batch, error) {
	return r.base.GetByID(ctx, batchID)
}

// GetForUpdate implements product.BatchRepository.
func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*product.Batch, error) {
	return r.base.GetForUpdate(ctx, batchID)
}

// GetByNumber implements product.BatchRepository.
func (r *BatchRepo) GetByNumber(ctx context.Context, productID id.ID, number string) (*product.Batch, error) {
	q := r.base.baseSelect().
		Where(squirrel.Eq{"product_id": productID, "batch_number": number}).
		Limit(1)
	return r.base.FindOne(ctx, q, number)
}

// ListByProduct implements product.BatchRepository.
func (r *BatchRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*product.Batch, error) {
	sql, args, err := r.byProductQuery(productID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	batches := []*product.Batch{}
	if err := pgxscan.Select(ctx, r.base.querier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

func (r *BatchRepo) byProductQuery(productID id.ID) squirrel.SelectBuilder {
	return r.base.baseSelect().
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("expiry_date ASC NULLS LAST", "batch_number ASC")
}

// UpdateStock implements product.BatchRepository.
func (r *BatchRepo) UpdateStock(ctx context.Context, b *product.Batch) error {
	if b.CurrentStock < 0 || b.CurrentStock > b.InitialStock {
		return apperror.NewValidation("batch stock out of range").
			WithDetail("batch_id", b.ID.String()).
			WithDetail("current", b.CurrentStock).
			WithDetail("initial", b.InitialStock)
	}

	sql, args, err := builder.Update(batchesTable).
		Set("initial_stock", b.InitialStock).
		Set("current_stock", b.CurrentStock).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	err = r.base.querier(ctx).QueryRow(ctx, sql, args...).Scan(&b.Version, &b.UpdatedAt)
	if pgxscan.NotFound(err) {
		return apperror.NewNotFound("Batch", b.ID.String())
	}
	if err != nil {
		return postgres.WriteError("update stock", "Batch", "id", b.ID.String(), err)
	}
	return nil
}

// SumCurrentStock implements product.BatchRepository.
func (r *BatchRepo) SumCurrentStock(ctx context.Context, productID id.ID) (int64, error) {
	sql, args, err := builder.Select("COALESCE(SUM(current_stock), 0)::bigint").
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum int64
	if err := r.base.querier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum batch stock: %w", err)
	}
	return sum, nil
}
