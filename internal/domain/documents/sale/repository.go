package sale

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/domain"
)

// Repository defines data access for sales. Sales are append-only.
type Repository interface {
	// Create inserts the header and lines.
	Create(ctx context.Context, s *Sale) error

	// GetByID loads the header and lines.
	GetByID(ctx context.Context, id id.ID) (*Sale, error)

	// List returns headers (without lines) newest first.
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Sale], error)

	// ListByCustomer returns every sale of the customer (without lines).
	ListByCustomer(ctx context.Context, customerID id.ID) ([]*Sale, error)

	// HasReversal reports whether a reversal of the sale exists.
	HasReversal(ctx context.Context, originalID id.ID) (bool, error)
}
