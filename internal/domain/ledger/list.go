package ledger

import (
	"context"

	"shopledger/internal/domain"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
)

// ListSales returns sale headers newest first. filter.PartyID selects a customer.
func (s *Service) ListSales(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*sale.Sale], error) {
	return s.sales.List(ctx, filter)
}

// ListPurchases returns purchase headers newest first. filter.PartyID selects a supplier.
func (s *Service) ListPurchases(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	return s.purchases.List(ctx, filter)
}
