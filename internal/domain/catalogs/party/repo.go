package party

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain"
)

// Repository defines data access for parties.
type Repository interface {
	domain.CatalogRepository[*Party]

	// GetForUpdate loads the party and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Party, error)

	// UpdateBalance overwrites the derived balance.
	UpdateBalance(ctx context.Context, id id.ID, balance types.Money) error

	// ListIDs returns every party ID of the given kind (empty kind = all).
	ListIDs(ctx context.Context, kind Kind) ([]id.ID, error)
}
