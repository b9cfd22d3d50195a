package purchase

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/domain"
)

// Repository defines data access for purchases. Purchases are append-only.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id id.ID) (*Purchase, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Purchase], error)

	// ListBySupplier returns every purchase of the supplier (without lines).
	ListBySupplier(ctx context.Context, supplierID id.ID) ([]*Purchase, error)

	HasReversal(ctx context.Context, originalID id.ID) (bool, error)
}
