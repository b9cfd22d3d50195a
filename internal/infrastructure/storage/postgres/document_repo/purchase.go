package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/core/id"
	"shopledger/internal/domain"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "purchases"
	purchaseLinesTable = "purchase_lines"
)

var purchaseLineCols = postgres.ExtractDBColumns[purchase.Line]()

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	base  *BaseDocumentRepo[*purchase.Purchase]
	batch *postgres.BatchExecutor
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		base: NewBaseDocumentRepo(
			txManager,
			purchasesTable,
			"Purchase",
			postgres.ExtractDBColumns[purchase.Purchase](),
			"supplier_id",
			"number",
			func() *purchase.Purchase { return new(purchase.Purchase) },
		),
		batch: postgres.NewBatchExecutor(txManager),
	}
}

// Create inserts the header and its lines. Lines carry the batch they
// created or restocked.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	for i := range p.Lines {
		p.Lines[i].PurchaseID = p.ID
	}
	if err := r.base.insertHeader(ctx, p); err != nil {
		return err
	}
	return insertLines(ctx, r.batch, purchaseLinesTable, purchaseLineCols, p.Lines)
}

// GetByID loads the header and its lines.
func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	p, err := r.base.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	p.Lines, err = selectLines[purchase.Line](ctx, r.base.querier(ctx), purchaseLinesTable, "purchase_id", purchaseLineCols, purchaseID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List implements purchase.Repository. filter.PartyID selects the supplier.
func (r *PurchaseRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	return r.base.List(ctx, filter)
}

// ListBySupplier implements purchase.Repository.
func (r *PurchaseRepo) ListBySupplier(ctx context.Context, supplierID id.ID) ([]*purchase.Purchase, error) {
	return r.base.Where(ctx, squirrel.Eq{"supplier_id": supplierID})
}

// HasReversal implements purchase.Repository.
func (r *PurchaseRepo) HasReversal(ctx context.Context, originalID id.ID) (bool, error) {
	return r.base.HasReversal(ctx, originalID)
}
