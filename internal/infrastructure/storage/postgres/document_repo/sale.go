package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/core/id"
	"shopledger/internal/domain"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sales"
	saleLinesTable = "sale_lines"
)

var saleLineCols = postgres.ExtractDBColumns[sale.Line]()

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	base  *BaseDocumentRepo[*sale.Sale]
	batch *postgres.BatchExecutor
}

var _ sale.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		base: NewBaseDocumentRepo(
			txManager,
			salesTable,
			"Sale",
			postgres.ExtractDBColumns[sale.Sale](),
			"customer_id",
			"number",
			func() *sale.Sale { return new(sale.Sale) },
		),
		batch: postgres.NewBatchExecutor(txManager),
	}
}

// Create inserts the header and its lines.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	for i := range s.Lines {
		s.Lines[i].SaleID = s.ID
	}
	if err := r.base.insertHeader(ctx, s); err != nil {
		return err
	}
	return insertLines(ctx, r.batch, saleLinesTable, saleLineCols, s.Lines)
}

// GetByID loads the header and its lines.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	s, err := r.base.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	s.Lines, err = selectLines[sale.Line](ctx, r.base.querier(ctx), saleLinesTable, "sale_id", saleLineCols, saleID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List implements sale.Repository. filter.PartyID selects the customer.
func (r *SaleRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*sale.Sale], error) {
	return r.base.List(ctx, filter)
}

// ListByCustomer implements sale.Repository.
func (r *SaleRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]*sale.Sale, error) {
	return r.base.Where(ctx, squirrel.Eq{"customer_id": customerID})
}

// HasReversal implements sale.Repository.
func (r *SaleRepo) HasReversal(ctx context.Context, originalID id.ID) (bool, error) {
	return r.base.HasReversal(ctx, originalID)
}
