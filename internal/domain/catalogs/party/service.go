package party

import (
	"context"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain"
)

// Service provides business operations for parties.
type Service struct {
	*domain.CatalogService[*Party]
	repo Repository
}

// NewService creates a new party service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Party]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "Party",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	// Balances are derived; a freshly created party never carries one,
	// and updates never change kind.
	base.Hooks().OnBeforeCreate(func(ctx context.Context, p *Party) error {
		if !p.CurrentBalance.IsZero() {
			return apperror.NewFieldValidation("currentBalance", "balance is maintained by the ledger and must start at zero")
		}
		return nil
	})
	base.Hooks().OnBeforeUpdate(func(ctx context.Context, p *Party) error {
		existing, err := repo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if existing.Kind != p.Kind {
			return apperror.NewFieldValidation("kind", "party kind cannot be changed")
		}
		return nil
	})

	return svc
}

// GetOfKind returns the party when it exists and has the expected kind,
// otherwise a PARTY_NOT_FOUND error.
func (s *Service) GetOfKind(ctx context.Context, kind Kind, partyID id.ID) (*Party, error) {
	p, err := s.repo.GetByID(ctx, partyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewPartyNotFound(kind.Label(), partyID.String())
		}
		return nil, err
	}
	if p.Kind != kind {
		return nil, apperror.NewPartyNotFound(kind.Label(), partyID.String())
	}
	return p, nil
}

// ListOfKind lists parties of one kind.
func (s *Service) ListOfKind(ctx context.Context, kind Kind, filter domain.ListFilter) (domain.ListResult[*Party], error) {
	filter.Kind = string(kind)
	return s.repo.List(ctx, filter)
}
